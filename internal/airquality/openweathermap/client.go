// Package openweathermap provides a live pollutant provider backed by the
// OpenWeatherMap Air Pollution API.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap data API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ErrMissingAPIKey is returned when the client has no API key configured.
var ErrMissingAPIKey = errors.New("openweathermap: api key not configured")

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches current pollutant concentrations from OpenWeatherMap.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// ObserveLive fetches the current reading at a point. CO is converted from µg/m³
// to mg/m³ to match the CO breakpoint table.
func (c *Client) ObserveLive(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/air_pollution?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", airquality.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", airquality.ErrProviderUnavailable, resp.StatusCode)
	}

	var body airPollutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(body.List) == 0 {
		return nil, airquality.ErrNoReading
	}

	reading := toReading(lat, lon, &body.List[0])

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("owm_index", body.List[0].Main.AQI).
		Msg("fetched live air pollution")

	return reading, nil
}

// toReading converts one list entry to a reading at the queried coordinates.
func toReading(lat, lon float64, item *pollutionItem) *aqi.Reading {
	r := &aqi.Reading{
		Lat:  lat,
		Lon:  lon,
		PM25: item.Components.PM25,
		PM10: item.Components.PM10,
		NO2:  item.Components.NO2,
		O3:   item.Components.O3,
		SO2:  item.Components.SO2,
	}
	if item.Components.CO != nil {
		r.CO = aqi.Float(*item.Components.CO / 1000.0)
	}
	if item.Dt > 0 {
		r.ObservedAt = time.Unix(item.Dt, 0).UTC()
	} else {
		r.ObservedAt = time.Now().UTC()
	}
	return r
}

// OpenWeatherMap API response structures.

type airPollutionResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	List []pollutionItem `json:"list"`
}

type pollutionItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"` // OWM 1..5 qualitative index
	} `json:"main"`
	Components struct {
		CO   *float64 `json:"co"`
		NO   *float64 `json:"no"`
		NO2  *float64 `json:"no2"`
		O3   *float64 `json:"o3"`
		SO2  *float64 `json:"so2"`
		PM25 *float64 `json:"pm2_5"`
		PM10 *float64 `json:"pm10"`
		NH3  *float64 `json:"nh3"`
	} `json:"components"`
}
