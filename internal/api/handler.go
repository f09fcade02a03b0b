package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalizer"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
)

var validate = validator.New()

// StatsProvider exposes counters for the metrics endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatusProvider exposes the cache janitor state.
type StatusProvider interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	dashboard   *services.Dashboard
	clientStats StatsProvider
	janitor     StatusProvider
	logger      *zap.Logger
}

// NewHandler builds the HTTP handlers. clientStats and janitor may be nil.
func NewHandler(dashboard *services.Dashboard, clientStats StatsProvider, janitor StatusProvider, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard:   dashboard,
		clientStats: clientStats,
		janitor:     janitor,
		logger:      logger,
	}
}

type locationQuery struct {
	City  string `query:"city" validate:"required_without_all=Lat Lon,excluded_with=Lat Lon,max=100"`
	Lat   string `query:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon   string `query:"lon" validate:"required_with=Lat,omitempty,longitude"`
	Units string `query:"units" validate:"omitempty,oneof=c f celsius fahrenheit metric imperial"`
}

type geocodeQuery struct {
	Q     string `query:"q" validate:"required,max=100"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=5"`
}

// parseLocation binds and validates the location parameters shared by the
// weather endpoints.
func (h *Handler) parseLocation(c *fiber.Ctx) (models.LocationQuery, models.Unit, error) {
	var req locationQuery
	if err := c.QueryParser(&req); err != nil {
		return models.LocationQuery{}, "", err
	}
	req.City = strings.TrimSpace(req.City)
	req.Lat = strings.TrimSpace(req.Lat)
	req.Lon = strings.TrimSpace(req.Lon)
	req.Units = strings.ToLower(strings.TrimSpace(req.Units))

	if err := validate.Struct(req); err != nil {
		return models.LocationQuery{}, "", err
	}

	unit, err := normalizer.ParseUnit(req.Units, h.dashboard.DefaultUnit())
	if err != nil {
		return models.LocationQuery{}, "", err
	}

	q := models.LocationQuery{City: req.City}
	if req.Lat != "" {
		lat, _ := strconv.ParseFloat(req.Lat, 64)
		lon, _ := strconv.ParseFloat(req.Lon, 64)
		q.Lat, q.Lon = &lat, &lon
	}
	return q, unit, nil
}

// GetCurrentWeather handles GET /api/v1/weather/current
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	q, unit, err := h.parseLocation(c)
	if err != nil {
		return badRequest(c, err)
	}

	h.logger.Info("Fetching current weather", zap.String("location", q.String()))

	reading, err := h.dashboard.Current(c.UserContext(), q, unit)
	if err != nil {
		return h.fail(c, "Failed to get current weather", q, err)
	}

	return c.JSON(reading)
}

// GetForecast handles GET /api/v1/weather/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	q, unit, err := h.parseLocation(c)
	if err != nil {
		return badRequest(c, err)
	}

	h.logger.Info("Fetching forecast", zap.String("location", q.String()))

	forecast, err := h.dashboard.Forecast(c.UserContext(), q, unit)
	if err != nil {
		return h.fail(c, "Failed to get forecast", q, err)
	}

	return c.JSON(forecast)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	q, unit, err := h.parseLocation(c)
	if err != nil {
		return badRequest(c, err)
	}

	view, err := h.dashboard.Refresh(c.UserContext(), q, unit)
	if err != nil {
		return h.fail(c, "Failed to refresh dashboard", q, err)
	}

	return c.JSON(view)
}

// Geocode handles GET /api/v1/geocode
func (h *Handler) Geocode(c *fiber.Ctx) error {
	var req geocodeQuery
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, err)
	}
	req.Q = strings.TrimSpace(req.Q)
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err)
	}
	if req.Limit == 0 {
		req.Limit = client.DefaultGeocodeLimit
	}

	places, err := h.dashboard.Geocode(c.UserContext(), req.Q, req.Limit)
	if err != nil {
		return h.fail(c, "Failed to search locations", models.LocationQuery{City: req.Q}, err)
	}

	results := make([]fiber.Map, 0, len(places))
	for _, p := range places {
		results = append(results, fiber.Map{
			"label":   p.Label(),
			"name":    p.Name,
			"state":   p.State,
			"country": p.Country,
			"lat":     p.Lat,
			"lon":     p.Lon,
		})
	}
	return c.JSON(fiber.Map{"results": results})
}

// GetLocations handles GET /api/v1/locations
func (h *Handler) GetLocations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"locations":    h.dashboard.Locations(),
		"map":          h.dashboard.MapDefaults(),
		"default_unit": h.dashboard.DefaultUnit(),
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_fetch": h.dashboard.GetLastFetchTime(),
		"uptime":     time.Since(startTime).String(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	metrics := fiber.Map{"dashboard": h.dashboard.GetStats()}
	if h.clientStats != nil {
		metrics["client"] = h.clientStats.GetStats()
	}
	if h.janitor != nil {
		metrics["janitor"] = h.janitor.GetStatus()
	}

	return c.JSON(fiber.Map{
		"metrics":   metrics,
		"timestamp": time.Now(),
	})
}

func (h *Handler) fail(c *fiber.Ctx, msg string, q models.LocationQuery, err error) error {
	status, userMsg, kind := ClassifyError(err)

	fields := []zap.Field{
		zap.String("location", q.String()),
		zap.String("kind", kind),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.Error(msg, fields...)
	} else {
		h.logger.Warn(msg, fields...)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   userMsg,
		"kind":    kind,
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"kind":    "bad_request",
	})
}

// ClassifyError maps a service error to the HTTP status and message shown to
// the user.
func ClassifyError(err error) (int, string, string) {
	var vErr *normalizer.ValidationError
	switch {
	case errors.As(err, &vErr):
		return fiber.StatusBadGateway, "Weather service returned incomplete data", "validation"
	case errors.Is(err, client.ErrUnauthorized):
		return fiber.StatusBadGateway, "API key error: Please check if your API key is valid and activated", client.KindName(err)
	case errors.Is(err, client.ErrRateLimited):
		return fiber.StatusTooManyRequests, "Too many requests: Please wait before trying again", client.KindName(err)
	case errors.Is(err, client.ErrNotFound):
		return fiber.StatusNotFound, "Location not found", client.KindName(err)
	case errors.Is(err, client.ErrNetwork):
		return fiber.StatusGatewayTimeout, "Weather service is unreachable, please try again", client.KindName(err)
	case errors.Is(err, client.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "Weather service temporarily unavailable", client.KindName(err)
	case errors.Is(err, client.ErrMalformed):
		return fiber.StatusBadGateway, "Weather service returned incomplete data", client.KindName(err)
	default:
		return fiber.StatusInternalServerError, "Failed to fetch weather data", client.KindName(err)
	}
}

var startTime = time.Now()
