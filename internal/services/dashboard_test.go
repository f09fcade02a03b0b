package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalizer"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

const baseUnix = 1709290800 // 2024-03-01 11:00 UTC

type fakeClient struct {
	mu            sync.Mutex
	currentCalls  int
	forecastCalls int
	geocodeCalls  int
	current       *models.RawObservation
	forecast      *models.RawForecast
	places        []models.Place
	err           error
}

func (f *fakeClient) GetCurrentWeather(_ context.Context, _ models.LocationQuery) (*models.RawObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.current, nil
}

func (f *fakeClient) GetForecast(_ context.Context, _ models.LocationQuery) (*models.RawForecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

func (f *fakeClient) Geocode(_ context.Context, _ string, _ int) ([]models.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.places, nil
}

func londonObservation() *models.RawObservation {
	obs := &models.RawObservation{
		Coord:   models.RawCoord{Lat: 51.5074, Lon: -0.1278},
		Weather: []models.RawCondition{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
		Main: models.RawMain{
			Temp:     f64(288.15),
			Humidity: f64(60),
			Pressure: f64(1015),
		},
		Wind: &models.RawWind{Speed: f64(5)},
		Dt:   i64(baseUnix),
		Name: "London",
	}
	obs.Sys.Country = "GB"
	return obs
}

// londonForecast returns n 3-hourly entries warming by one kelvin per slot.
func londonForecast(n int) *models.RawForecast {
	fc := &models.RawForecast{
		Cnt: n,
		City: models.RawCity{
			Name:    "London",
			Country: "GB",
			Coord:   models.RawCoord{Lat: 51.5074, Lon: -0.1278},
		},
	}
	for i := 0; i < n; i++ {
		label := "clouds"
		if i%3 == 0 {
			label = "light rain"
		}
		fc.List = append(fc.List, models.RawForecastEntry{
			Dt:      i64(baseUnix + int64(i)*3*3600),
			Main:    models.RawMain{Temp: f64(283.15 + float64(i)), Humidity: f64(70)},
			Weather: []models.RawCondition{{Main: "Clouds", Description: label}},
			Wind:    &models.RawWind{Speed: f64(2)},
		})
	}
	return fc
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Display.DefaultUnit = models.Celsius
	cfg.Map.CenterLat = 20
	cfg.Map.CenterLon = 0
	cfg.Map.Zoom = 2
	cfg.Locations = config.DefaultLocations
	return cfg
}

func newTestDashboard(fc *fakeClient) *Dashboard {
	return NewDashboard(testConfig(), fc, NewWeatherCache(30*time.Minute, 100, zap.NewNop()), zap.NewNop())
}

func TestDashboardRefresh(t *testing.T) {
	fc := &fakeClient{current: londonObservation(), forecast: londonForecast(16)}
	d := newTestDashboard(fc)

	view, err := d.Refresh(context.Background(), models.LocationQuery{City: "London"}, models.Celsius)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if view.RefreshID == "" {
		t.Error("missing refresh id")
	}
	if view.Location.Name != "London" || view.Unit != models.Celsius {
		t.Errorf("unexpected location/unit %+v %s", view.Location, view.Unit)
	}
	if math.Abs(view.Current.Temperature-15) > 1e-9 {
		t.Errorf("current temperature = %v, want 15", view.Current.Temperature)
	}
	if len(view.Forecast) != 16 || len(view.TemperatureSeries) != 16 {
		t.Errorf("forecast=%d series=%d", len(view.Forecast), len(view.TemperatureSeries))
	}
	if len(view.Daily) == 0 {
		t.Error("expected daily aggregates")
	}
	// first 8 average 13.5, last 8 average 21.5
	if view.KPIs.TemperatureTrend != 8 {
		t.Errorf("trend = %v, want 8", view.KPIs.TemperatureTrend)
	}
	if len(view.Conditions) != 2 || view.Conditions[0].Label != "Clouds" {
		t.Errorf("conditions = %+v", view.Conditions)
	}
	if view.Map.Marker == nil || view.Map.Center != [2]float64{51.5074, -0.1278} {
		t.Errorf("map = %+v", view.Map)
	}
	if len(view.Cards) != 4 {
		t.Errorf("cards = %+v", view.Cards)
	}
}

func TestDashboardServesFromCache(t *testing.T) {
	fc := &fakeClient{current: londonObservation(), forecast: londonForecast(8)}
	d := newTestDashboard(fc)
	ctx := context.Background()
	q := models.LocationQuery{City: "London"}

	if _, err := d.Refresh(ctx, q, models.Celsius); err != nil {
		t.Fatal(err)
	}
	// unit changes reuse the cached raw records
	view, err := d.Refresh(ctx, models.LocationQuery{City: " london "}, models.Fahrenheit)
	if err != nil {
		t.Fatal(err)
	}

	if fc.currentCalls != 1 || fc.forecastCalls != 1 {
		t.Errorf("provider called current=%d forecast=%d, want 1/1", fc.currentCalls, fc.forecastCalls)
	}
	if math.Abs(view.Current.Temperature-59) > 1e-9 {
		t.Errorf("fahrenheit temperature = %v, want 59", view.Current.Temperature)
	}
	if d.GetStats()["cache_hits"].(int) != 2 {
		t.Errorf("stats = %v", d.GetStats())
	}
}

func TestDashboardPropagatesClientError(t *testing.T) {
	apiErr := &client.APIError{Kind: client.ErrNotFound, Endpoint: "weather", StatusCode: 404}
	fc := &fakeClient{err: apiErr}
	d := newTestDashboard(fc)

	_, err := d.Refresh(context.Background(), models.LocationQuery{City: "Atlantis"}, models.Celsius)
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if fc.forecastCalls != 0 {
		t.Error("forecast should not be requested after current fails")
	}
	if d.GetStats()["failure_count"].(int) != 1 {
		t.Errorf("stats = %v", d.GetStats())
	}
	if !d.GetLastFetchTime().IsZero() {
		t.Error("last fetch time set without a success")
	}
}

func TestDashboardValidationError(t *testing.T) {
	fc := &fakeClient{current: londonObservation(), forecast: londonForecast(4)}
	fc.forecast.List[2].Main.Temp = nil
	d := newTestDashboard(fc)

	_, err := d.Forecast(context.Background(), models.LocationQuery{City: "London"}, models.Celsius)
	var vErr *normalizer.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Field != "main.temp" || vErr.Index != 2 {
		t.Errorf("got %+v", vErr)
	}
	stats := d.GetStats()
	if stats["success_count"].(int) != 0 || stats["failure_count"].(int) != 1 {
		t.Errorf("stats = %v", stats)
	}
	if !d.GetLastFetchTime().IsZero() {
		t.Error("last fetch time set for an incomplete response")
	}
}

func TestDashboardRetriesAfterIncompleteResponse(t *testing.T) {
	fc := &fakeClient{forecast: londonForecast(4)}
	fc.forecast.List[2].Main.Temp = nil
	d := newTestDashboard(fc)
	ctx := context.Background()
	q := models.LocationQuery{City: "London"}

	if _, err := d.Forecast(ctx, q, models.Celsius); err == nil {
		t.Fatal("expected validation error")
	}

	fc.mu.Lock()
	fc.forecast = londonForecast(4)
	fc.mu.Unlock()

	view, err := d.Forecast(ctx, q, models.Celsius)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(view.Readings) != 4 {
		t.Errorf("readings = %d, want 4", len(view.Readings))
	}
	if fc.forecastCalls != 2 {
		t.Errorf("forecast calls = %d, want 2", fc.forecastCalls)
	}

	// The accepted response is cached now
	if _, err := d.Forecast(ctx, q, models.Fahrenheit); err != nil {
		t.Fatal(err)
	}
	if fc.forecastCalls != 2 {
		t.Errorf("forecast calls = %d, want 2", fc.forecastCalls)
	}
	stats := d.GetStats()
	if stats["success_count"].(int) != 1 || stats["failure_count"].(int) != 1 || stats["cache_hits"].(int) != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestDashboardForecast(t *testing.T) {
	fc := &fakeClient{forecast: londonForecast(40)}
	d := newTestDashboard(fc)

	view, err := d.Forecast(context.Background(), models.LocationQuery{City: "London"}, models.Celsius)
	if err != nil {
		t.Fatal(err)
	}
	if view.Location.Name != "London" || len(view.Readings) != 40 {
		t.Errorf("unexpected view %+v", view.Location)
	}
	total := 0
	for _, day := range view.Daily {
		total += day.Entries
	}
	if total != 40 {
		t.Errorf("daily entries sum to %d, want 40", total)
	}
}

func TestDashboardGeocode(t *testing.T) {
	fc := &fakeClient{places: []models.Place{{Name: "Springfield", State: "Illinois", Country: "US"}}}
	d := newTestDashboard(fc)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		places, err := d.Geocode(ctx, "Springfield", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(places) != 1 || places[0].Label() != "Springfield, Illinois, US" {
			t.Errorf("places = %+v", places)
		}
	}
	if fc.geocodeCalls != 1 {
		t.Errorf("geocode calls = %d, want 1", fc.geocodeCalls)
	}
}

func TestDashboardDefaults(t *testing.T) {
	d := NewDashboard(&config.Config{}, &fakeClient{}, nil, zap.NewNop())
	if d.DefaultUnit() != models.Celsius {
		t.Errorf("default unit = %s", d.DefaultUnit())
	}
	if d.GetStats()["cache_stats"].(map[string]interface{})["backend"] != "none" {
		t.Error("nil cache should fall back to noop")
	}
}
