package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetingroom/pkg/config"
	httputil "meetingroom/pkg/http"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type echoHandler struct{}

func (echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = httputil.WriteJSON(w, http.StatusCreated, httputil.SuccessResponse{Data: "ok"})
	})
	router.GET("/api/v1/panic", func(http.ResponseWriter, *http.Request, httprouter.Params) {
		panic("boom")
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		Log:               logger.Discard(),
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
	}
}

func newTestApp(t *testing.T, ping pingFunc) *Application {
	t.Helper()
	a := NewApplication()
	a.SetApp(testConfig(), ping, echoHandler{})
	t.Cleanup(a.Close)
	return a
}

func post(h http.Handler, body, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(middleware.OrganizerEmailHeader, email)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApplication_HealthBypassesRateLimit(t *testing.T) {
	a := newTestApp(t, func(context.Context) error { return nil })

	for range 5 {
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestApplication_ReadyReportsStore(t *testing.T) {
	a := newTestApp(t, func(context.Context) error { return errors.New("down") })

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestApplication_MiddlewareChain(t *testing.T) {
	a := newTestApp(t, func(context.Context) error { return nil })
	h := a.Handler()

	w := post(h, `{}`, "dana@example.com")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	assert.Equal(t, http.StatusCreated, post(h, `{}`, "dana@example.com").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, `{}`, "dana@example.com").Code)
	assert.Equal(t, http.StatusCreated, post(h, `{}`, "lee@example.com").Code)
}

func TestApplication_CloseRunsHooksOnce(t *testing.T) {
	a := NewApplication()
	a.SetApp(testConfig(), pingFunc(func(context.Context) error { return nil }), echoHandler{})

	calls := 0
	a.OnShutdown(func() { calls++ })
	a.Close()
	a.Close()
	assert.Equal(t, 1, calls)
}

func TestApplication_RecoversPanics(t *testing.T) {
	a := newTestApp(t, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
