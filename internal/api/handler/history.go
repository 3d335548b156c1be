package handler

import (
	"net/http"

	"github.com/aqinsight/aqinsight/internal/analytics"
	"github.com/aqinsight/aqinsight/internal/api/models"
	"github.com/aqinsight/aqinsight/internal/api/response"
	"github.com/aqinsight/aqinsight/internal/store"
)

// HistoryHandler handles the stored history endpoints.
type HistoryHandler struct {
	service *analytics.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(service *analytics.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// bind parses the query and builds the analytics query plus response envelope.
// It writes the error response and returns false on failure.
func (h *HistoryHandler) bind(w http.ResponseWriter, r *http.Request) (analytics.Query, models.HistoryEnvelope, bool) {
	q, errs := parseHistoryQuery(r)
	if errs != nil {
		response.BadRequest(w, r, invalidQueryDetail, errs)
		return analytics.Query{}, models.HistoryEnvelope{}, false
	}
	if h.service == nil {
		response.ServiceUnavailable(w, r, "history is not configured")
		return analytics.Query{}, models.HistoryEnvelope{}, false
	}

	query := analytics.Query{
		Lat:      *q.Lat,
		Lon:      *q.Lon,
		Days:     q.Days,
		RadiusKm: q.RadiusKm,
		Window:   q.RollingWindow,
	}
	env := models.HistoryEnvelope{
		Latitude:  query.Lat,
		Longitude: query.Lon,
		Days:      query.Days,
		RadiusKm:  query.RadiusKm,
		Source:    string(store.SourceGrid),
	}
	return query, env, true
}

// Raw handles GET /v1/aqi/history/raw.
func (h *HistoryHandler) Raw(w http.ResponseWriter, r *http.Request) {
	query, env, ok := h.bind(w, r)
	if !ok {
		return
	}

	obs, err := h.service.Raw(r.Context(), query)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	rows := make([]models.HistoryRow, 0, len(obs))
	for i := range obs {
		rows = append(rows, models.NewHistoryRow(&obs[i]))
	}
	response.JSON(w, r, http.StatusOK, models.RawHistoryResponse{HistoryEnvelope: env, Rows: rows})
}

// Timeseries handles GET /v1/aqi/history/timeseries.
func (h *HistoryHandler) Timeseries(w http.ResponseWriter, r *http.Request) {
	query, env, ok := h.bind(w, r)
	if !ok {
		return
	}

	series, err := h.service.Timeseries(r.Context(), query)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if series == nil {
		series = []analytics.Point{}
	}
	response.JSON(w, r, http.StatusOK, models.TimeseriesResponse{HistoryEnvelope: env, Series: series})
}

// Summary handles GET /v1/aqi/history/summary.
func (h *HistoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	query, env, ok := h.bind(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), query)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp := models.SummaryResponse{HistoryEnvelope: env}
	if summary == nil {
		resp.Source = models.SourceNone
	} else {
		body := &models.SummaryBody{Stats: summary.Stats}
		if summary.Latest != nil {
			latest := models.NewHistoryRow(summary.Latest)
			body.Latest = &latest
		}
		resp.Summary = body
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Daily handles GET /v1/aqi/history/daily.
func (h *HistoryHandler) Daily(w http.ResponseWriter, r *http.Request) {
	query, env, ok := h.bind(w, r)
	if !ok {
		return
	}

	days, err := h.service.Daily(r.Context(), query)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if days == nil {
		days = []analytics.Day{}
	}
	response.JSON(w, r, http.StatusOK, models.DailyResponse{HistoryEnvelope: env, Daily: days})
}
