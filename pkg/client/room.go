package client

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(baseUrl string) *RoomClient {
	return &RoomClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *RoomClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/rooms", body)
}

func (c *RoomClient) List(activeOnly bool, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("active_only", strconv.FormatBool(activeOnly))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return c.httpClient.GET("/api/v1/rooms?" + q.Encode())
}

func (c *RoomClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/rooms/id/" + url.PathEscape(id))
}

func (c *RoomClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/rooms/id/"+url.PathEscape(id), body)
}

func (c *RoomClient) Deactivate(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/rooms/id/" + url.PathEscape(id))
}

func (c *RoomClient) Availability(id string, start, end time.Time) (*Response, error) {
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	return c.httpClient.GET("/api/v1/rooms/id/" + url.PathEscape(id) + "/availability?" + q.Encode())
}

func (c *RoomClient) Schedule(id string, date string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	return c.httpClient.GET("/api/v1/rooms/id/" + url.PathEscape(id) + "/schedule?" + q.Encode())
}

// Available lists rooms free for the interval. minCapacity <= 0 omits the filter.
func (c *RoomClient) Available(start, end time.Time, minCapacity int) (*Response, error) {
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	if minCapacity > 0 {
		q.Set("min_capacity", strconv.Itoa(minCapacity))
	}
	return c.httpClient.GET("/api/v1/rooms/available?" + q.Encode())
}
