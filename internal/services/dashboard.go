package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalizer"
)

type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, q models.LocationQuery) (*models.RawObservation, error)
	GetForecast(ctx context.Context, q models.LocationQuery) (*models.RawForecast, error)
	Geocode(ctx context.Context, query string, limit int) ([]models.Place, error)
}

// Dashboard fetches through the response cache, normalizes and assembles
// the view for each refresh.
type Dashboard struct {
	client      WeatherClient
	cache       Cache
	logger      *zap.Logger
	defaultUnit models.Unit
	locations   []models.Place
	mapSettings MapSettings

	mu            sync.RWMutex
	lastFetchTime time.Time
	successCount  int
	failureCount  int
	cacheHits     int
}

func NewDashboard(cfg *config.Config, client WeatherClient, cache Cache, logger *zap.Logger) *Dashboard {
	if cache == nil {
		cache = NewNoopCache()
	}
	return &Dashboard{
		client:      client,
		cache:       cache,
		logger:      logger,
		defaultUnit: cfg.Display.DefaultUnit,
		locations:   cfg.Locations,
		mapSettings: MapSettings{
			CenterLat: cfg.Map.CenterLat,
			CenterLon: cfg.Map.CenterLon,
			Zoom:      cfg.Map.Zoom,
		},
	}
}

func (d *Dashboard) DefaultUnit() models.Unit {
	if d.defaultUnit == "" {
		return models.Celsius
	}
	return d.defaultUnit
}

func (d *Dashboard) Locations() []models.Place {
	return d.locations
}

func (d *Dashboard) MapDefaults() models.MapView {
	return models.MapView{
		Center: [2]float64{d.mapSettings.CenterLat, d.mapSettings.CenterLon},
		Zoom:   d.mapSettings.Zoom,
	}
}

// Current returns the normalized current conditions for q.
func (d *Dashboard) Current(ctx context.Context, q models.LocationQuery, unit models.Unit) (*models.NormalizedReading, error) {
	var reading models.NormalizedReading
	_, err := cached(ctx, d, "current:"+q.Key(), func() (*models.RawObservation, error) {
		raw, err := d.client.GetCurrentWeather(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch weather for %s: %w", q, err)
		}
		return raw, nil
	}, func(raw *models.RawObservation) (err error) {
		reading, err = normalizer.NormalizeObservation(raw, unit)
		if err != nil {
			return fmt.Errorf("invalid current weather for %s: %w", q, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// Forecast returns the normalized 3-hourly forecast and its daily summary.
func (d *Dashboard) Forecast(ctx context.Context, q models.LocationQuery, unit models.Unit) (*models.ForecastView, error) {
	var readings []models.NormalizedReading
	_, err := cached(ctx, d, "forecast:"+q.Key(), func() (*models.RawForecast, error) {
		raw, err := d.client.GetForecast(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch forecast for %s: %w", q, err)
		}
		return raw, nil
	}, func(raw *models.RawForecast) (err error) {
		readings, err = normalizer.NormalizeForecast(raw, unit)
		if err != nil {
			return fmt.Errorf("invalid forecast for %s: %w", q, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := &models.ForecastView{
		Unit:     unit,
		Readings: readings,
		Daily:    normalizer.AggregateDaily(readings),
	}
	if len(readings) > 0 {
		view.Location = readings[0].Location
	}
	return view, nil
}

// Refresh performs one dashboard refresh: current conditions, then the
// forecast, both sequentially.
func (d *Dashboard) Refresh(ctx context.Context, q models.LocationQuery, unit models.Unit) (*models.DashboardView, error) {
	refreshID := uuid.NewString()
	start := time.Now()

	d.logger.Info("Refreshing dashboard",
		zap.String("refresh_id", refreshID),
		zap.String("location", q.String()),
		zap.String("unit", string(unit)))

	current, err := d.Current(ctx, q, unit)
	if err != nil {
		return nil, err
	}
	forecast, err := d.Forecast(ctx, q, unit)
	if err != nil {
		return nil, err
	}

	view := BuildView(ViewInput{
		RefreshID:  refreshID,
		Current:    *current,
		Forecast:   forecast.Readings,
		Daily:      forecast.Daily,
		KPIs:       normalizer.ComputeKPIs(current, forecast.Readings),
		Conditions: normalizer.ConditionDistribution(forecast.Readings),
		Map:        d.mapSettings,
		FetchedAt:  time.Now().UTC(),
	})

	d.logger.Info("Dashboard refresh completed",
		zap.String("refresh_id", refreshID),
		zap.String("location", current.Location.Name),
		zap.Int("forecast_entries", len(forecast.Readings)),
		zap.Duration("duration", time.Since(start)))

	return view, nil
}

// Geocode searches for places matching query.
func (d *Dashboard) Geocode(ctx context.Context, query string, limit int) ([]models.Place, error) {
	key := fmt.Sprintf("geocode:%s:%d", query, limit)
	places, err := cached(ctx, d, key, func() (*[]models.Place, error) {
		p, err := d.client.Geocode(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", query, err)
	}
	return *places, nil
}

// cached serves key from the response cache or calls fetch and stores the
// result. Only records that accept takes are counted as successes and
// written back.
func cached[T any](ctx context.Context, d *Dashboard, key string, fetch func() (*T, error), accept func(*T) error) (*T, error) {
	if data, ok := d.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil && (accept == nil || accept(&v) == nil) {
			d.logger.Debug("Cache hit", zap.String("key", key))
			d.mu.Lock()
			d.cacheHits++
			d.mu.Unlock()
			return &v, nil
		}
		d.logger.Warn("Discarding unusable cache entry", zap.String("key", key))
	}

	d.logger.Debug("Cache miss, fetching fresh data", zap.String("key", key))
	v, err := fetch()
	if err != nil {
		d.recordFailure()
		return nil, err
	}
	if accept != nil {
		if err := accept(v); err != nil {
			d.recordFailure()
			return nil, err
		}
	}
	d.recordSuccess()

	if data, err := json.Marshal(v); err == nil {
		d.cache.Set(ctx, key, data)
	}
	return v, nil
}

func (d *Dashboard) recordSuccess() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.successCount++
	d.lastFetchTime = time.Now()
}

func (d *Dashboard) recordFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failureCount++
}

func (d *Dashboard) GetLastFetchTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastFetchTime
}

func (d *Dashboard) GetStats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"last_fetch_time": d.lastFetchTime,
		"success_count":   d.successCount,
		"failure_count":   d.failureCount,
		"cache_hits":      d.cacheHits,
		"cache_stats":     d.cache.GetStats(),
	}
}
