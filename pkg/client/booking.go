package client

import (
	"fmt"
	"net/url"
	"strconv"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

// List passes filters through as query parameters (room_id, organizer_email,
// from, to, include_cancelled).
func (c *BookingClient) List(filters map[string]string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return c.httpClient.GET("/api/v1/bookings?" + q.Encode())
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id), body)
}

func (c *BookingClient) Cancel(id string, reason string) (*Response, error) {
	body := map[string]any{}
	if reason != "" {
		body["reason"] = reason
	}
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", body)
}

func (c *BookingClient) Upcoming(days int) (*Response, error) {
	path := "/api/v1/bookings/upcoming"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	return c.httpClient.GET(path)
}

func (c *BookingClient) Today() (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/today")
}

func (c *BookingClient) ByOrganizer(email string) (*Response, error) {
	q := url.Values{}
	q.Set("email", email)
	return c.httpClient.GET("/api/v1/bookings/organizer?" + q.Encode())
}

func (c *BookingClient) Search(term string) (*Response, error) {
	q := url.Values{}
	q.Set("q", term)
	return c.httpClient.GET("/api/v1/bookings/search?" + q.Encode())
}
