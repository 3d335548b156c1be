package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aqinsight/aqinsight/internal/analytics"
	"github.com/aqinsight/aqinsight/internal/api/models"
	"github.com/aqinsight/aqinsight/internal/heatmap"
)

const invalidQueryDetail = "One or more query parameters are invalid."

var validate = newValidator()

// newValidator reports field errors under their query parameter names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// queryParser reads typed query parameters and collects format errors.
type queryParser struct {
	values url.Values
	errs   []models.FieldError
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

// float returns nil when the parameter is absent.
func (p *queryParser) float(name string) *float64 {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.errs = append(p.errs, models.FieldError{
			Field:   name,
			Message: "must be a finite number",
			Code:    "invalid_format",
		})
		return nil
	}
	return &v
}

func (p *queryParser) floatOr(name string, def float64) float64 {
	if v := p.float(name); v != nil {
		return *v
	}
	return def
}

func (p *queryParser) intOr(name string, def int) int {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, models.FieldError{
			Field:   name,
			Message: "must be an integer",
			Code:    "invalid_format",
		})
		return def
	}
	return v
}

// finish validates the bound struct once every parameter parsed cleanly.
func (p *queryParser) finish(dst any) []models.FieldError {
	if len(p.errs) > 0 {
		return p.errs
	}
	if err := validate.Struct(dst); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func parseCoordsQuery(r *http.Request) (models.CoordsQuery, []models.FieldError) {
	p := newQueryParser(r)
	q := models.CoordsQuery{
		Lat: p.float("lat"),
		Lon: p.float("lon"),
	}
	return q, p.finish(q)
}

func parseHeatmapQuery(r *http.Request) (models.HeatmapQuery, []models.FieldError) {
	p := newQueryParser(r)
	q := models.HeatmapQuery{
		Lat1:       p.float("lat1"),
		Lon1:       p.float("lon1"),
		Lat2:       p.float("lat2"),
		Lon2:       p.float("lon2"),
		SampleGrid: p.intOr("sample_grid", heatmap.DefaultDensity),
		OutRes:     p.intOr("out_res", heatmap.DefaultOutRes),
	}
	return q, p.finish(q)
}

func parseHistoryQuery(r *http.Request) (models.HistoryQuery, []models.FieldError) {
	p := newQueryParser(r)
	q := models.HistoryQuery{
		Lat:           p.float("lat"),
		Lon:           p.float("lon"),
		Days:          p.intOr("days", analytics.DefaultDays),
		RadiusKm:      p.floatOr("radius_km", analytics.DefaultRadiusKm),
		RollingWindow: p.intOr("rolling_window", analytics.DefaultWindow),
	}
	return q, p.finish(q)
}
