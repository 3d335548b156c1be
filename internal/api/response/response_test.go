package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aqinsight/aqinsight/internal/api/middleware"
	"github.com/aqinsight/aqinsight/internal/api/models"
	"github.com/aqinsight/aqinsight/internal/api/response"
	"github.com/aqinsight/aqinsight/internal/aqi"
)

// requestWithContext creates a request that has been through the RequestID
// middleware so its context carries a request ID.
func requestWithContext(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)

	var processedReq *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processedReq = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	return processedReq, httptest.NewRecorder()
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var problem models.Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return problem
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != middleware.GetRequestID(req.Context()) {
		t.Errorf("expected X-Request-Id to match context, got %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if got := rec.Header().Get("X-Request-Id"); got != "" {
		t.Errorf("expected no X-Request-Id header when not in context, got %q", got)
	}
}

func TestJSON_NilData(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got %q", rec.Body.String())
	}
}

func TestBadRequest_IncludesFieldErrors(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/v1/aqi/coords")

	response.BadRequest(rec, req, "invalid query", []models.FieldError{
		{Field: "lat", Message: "is required", Code: "required"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	problem := decodeProblem(t, rec)
	if problem.TraceID != middleware.GetRequestID(req.Context()) {
		t.Errorf("expected traceId to match request ID, got %q", problem.TraceID)
	}
	if problem.Instance != "/v1/aqi/coords" {
		t.Errorf("expected instance /v1/aqi/coords, got %q", problem.Instance)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "lat" {
		t.Errorf("expected one field error for lat, got %+v", problem.Errors)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "invalid input",
			err:    fmt.Errorf("%w: zero area", aqi.ErrInvalidInput),
			status: http.StatusBadRequest,
			detail: "invalid input: zero area",
		},
		{
			name:   "other",
			err:    errors.New("connection refused"),
			status: http.StatusInternalServerError,
			detail: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodGet, "/v1/aqi/heatmap/smooth")

			response.FromError(rec, req, tt.err)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if problem := decodeProblem(t, rec); problem.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, problem.Detail)
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		typ    string
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "no route") }, http.StatusNotFound, models.ProblemTypeNotFound},
		{"method not allowed", response.MethodNotAllowed, http.StatusMethodNotAllowed, models.ProblemTypeMethodNotAllowed},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") }, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "db down") }, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodPost, "/test")

			tt.write(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("expected problem+json, got %q", ct)
			}
			if problem := decodeProblem(t, rec); problem.Type != tt.typ {
				t.Errorf("expected type %q, got %q", tt.typ, problem.Type)
			}
		})
	}
}
