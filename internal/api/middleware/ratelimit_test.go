package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aqinsight/aqinsight/internal/api/middleware"
)

func doFrom(handler http.Handler, ip, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = ip
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:12345", "/test").Code, "request %d", i+1)
	}

	rec := doFrom(handler, "10.0.0.1:12345", "/test")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitByIP_DifferentIPsHaveSeparateLimits(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.PerMinute(2))(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doFrom(handler, "172.16.0.1:12345", "/test").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doFrom(handler, "172.16.0.1:12345", "/test").Code)
	assert.Equal(t, http.StatusOK, doFrom(handler, "172.16.0.2:12345", "/test").Code)
}

func TestRateLimitByIP_ZeroDisables(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.PerMinute(0))(okHandler())

	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, doFrom(handler, "192.0.2.1:1", "/test").Code)
	}
}

func TestRateLimitExceededResponse_Format(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.PerMinute(1))(okHandler()),
	)

	assert.Equal(t, http.StatusOK, doFrom(handler, "203.0.113.1:12345", "/v1/aqi/heatmap/smooth").Code)

	rec := doFrom(handler, "203.0.113.1:12345", "/v1/aqi/heatmap/smooth")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "/v1/aqi/heatmap/smooth")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 30, middleware.HeatmapRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.HeatmapRateLimit.WindowLength)
	assert.Equal(t, 120, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, middleware.StandardRateLimit, middleware.PerMinute(120))
}
