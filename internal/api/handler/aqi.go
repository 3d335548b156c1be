package handler

import (
	"net/http"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/api/models"
	"github.com/aqinsight/aqinsight/internal/api/response"
	"github.com/aqinsight/aqinsight/internal/heatmap"
)

// AQIHandler handles point and heatmap AQI endpoints.
type AQIHandler struct {
	resolver     *airquality.Resolver
	interpolator *heatmap.Interpolator
}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler(resolver *airquality.Resolver, interpolator *heatmap.Interpolator) *AQIHandler {
	return &AQIHandler{
		resolver:     resolver,
		interpolator: interpolator,
	}
}

// GetByCoords handles GET /v1/aqi/coords. Resolution always yields a value;
// the source field tells which step produced it.
func (h *AQIHandler) GetByCoords(w http.ResponseWriter, r *http.Request) {
	q, errs := parseCoordsQuery(r)
	if errs != nil {
		response.BadRequest(w, r, invalidQueryDetail, errs)
		return
	}
	if h.resolver == nil {
		response.ServiceUnavailable(w, r, "AQI resolution is not configured")
		return
	}

	rec := h.resolver.Resolve(r.Context(), *q.Lat, *q.Lon)
	response.JSON(w, r, http.StatusOK, models.NewAQIResponse(rec))
}

// GetHeatmap handles GET /v1/aqi/heatmap/smooth.
func (h *AQIHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	q, errs := parseHeatmapQuery(r)
	if errs != nil {
		response.BadRequest(w, r, invalidQueryDetail, errs)
		return
	}
	if h.interpolator == nil {
		response.ServiceUnavailable(w, r, "heatmap interpolation is not configured")
		return
	}

	box := heatmap.BBox{Lat1: *q.Lat1, Lon1: *q.Lon1, Lat2: *q.Lat2, Lon2: *q.Lon2}
	density := heatmap.ClampDensity(q.SampleGrid)
	outRes := heatmap.ClampOutRes(q.OutRes)

	grid, err := h.interpolator.Interpolate(r.Context(), box, density, outRes)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.HeatmapResponse{
		Grid:       grid,
		SampleGrid: density,
		OutRes:     outRes,
	})
}
