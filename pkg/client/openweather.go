package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultGeoURL  = "https://api.openweathermap.org/geo/1.0"

	DefaultGeocodeLimit = 5
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	geoURL  string
}

func NewOpenWeatherClient(apiKey, baseURL, geoURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if geoURL == "" {
		geoURL = DefaultGeoURL
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geoURL:     strings.TrimRight(geoURL, "/"),
	}
}

// GetCurrentWeather fetches current conditions. No units parameter is sent,
// so temperatures come back in Kelvin.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, q models.LocationQuery) (*models.RawObservation, error) {
	params, err := c.locationParams(q)
	if err != nil {
		return nil, err
	}

	data, err := c.Get(ctx, "weather", c.baseURL+"/weather", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response models.RawObservation
	if err := decode("weather", data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}

// GetForecast fetches the 5 day / 3 hour forecast.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, q models.LocationQuery) (*models.RawForecast, error) {
	params, err := c.locationParams(q)
	if err != nil {
		return nil, err
	}

	data, err := c.Get(ctx, "forecast", c.baseURL+"/forecast", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response models.RawForecast
	if err := decode("forecast", data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	return &response, nil
}

// Geocode resolves a free-text location name to candidate places.
func (c *OpenWeatherClient) Geocode(ctx context.Context, query string, limit int) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &APIError{Kind: ErrNotFound, Endpoint: "geocode", Message: "empty query"}
	}
	if limit <= 0 {
		limit = DefaultGeocodeLimit
	}

	data, err := c.Get(ctx, "geocode", c.geoURL+"/direct", map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
		"appid": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", query, err)
	}

	var raw []models.RawPlace
	if err := decode("geocode", data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(raw) == 0 {
		return nil, &APIError{Kind: ErrNotFound, Endpoint: "geocode", Message: query}
	}

	places := make([]models.Place, 0, len(raw))
	for _, p := range raw {
		places = append(places, models.Place{
			Name:    p.Name,
			State:   p.State,
			Country: p.Country,
			Lat:     p.Lat,
			Lon:     p.Lon,
		})
	}
	return places, nil
}

func (c *OpenWeatherClient) locationParams(q models.LocationQuery) (map[string]string, error) {
	params := map[string]string{"appid": c.apiKey}
	switch {
	case q.HasCoordinates():
		params["lat"] = strconv.FormatFloat(*q.Lat, 'f', -1, 64)
		params["lon"] = strconv.FormatFloat(*q.Lon, 'f', -1, 64)
	case strings.TrimSpace(q.City) != "":
		params["q"] = strings.TrimSpace(q.City)
	default:
		return nil, fmt.Errorf("location query needs a city or coordinates")
	}
	return params, nil
}
