package normalizer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const tolerance = 1e-9

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func observation(tempK float64) *models.RawObservation {
	raw := &models.RawObservation{
		Name:     "Buffalo",
		Coord:    models.RawCoord{Lat: 42.8867, Lon: -78.8784},
		Dt:       i64(1700000000),
		Timezone: -18000,
		Main: models.RawMain{
			Temp:      f64(tempK),
			FeelsLike: f64(tempK - 1),
			Humidity:  f64(65),
			Pressure:  f64(1013),
		},
		Wind:    &models.RawWind{Speed: f64(5), Deg: f64(270)},
		Weather: []models.RawCondition{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
	}
	raw.Sys.Country = "US"
	return raw
}

func TestConvertKelvin(t *testing.T) {
	for _, k := range []float64{0, 233.15, 273.15, 288.7, 300.15, 310.5} {
		c := ConvertKelvin(k, models.Celsius)
		if math.Abs(c-(k-273.15)) > tolerance {
			t.Errorf("celsius(%v) = %v, want %v", k, c, k-273.15)
		}
		f := ConvertKelvin(k, models.Fahrenheit)
		want := (k-273.15)*9/5 + 32
		if math.Abs(f-want) > tolerance {
			t.Errorf("fahrenheit(%v) = %v, want %v", k, f, want)
		}
	}
}

func TestNormalizeObservationUnits(t *testing.T) {
	tests := []struct {
		unit models.Unit
		want float64
	}{
		{models.Celsius, 27.0},
		{models.Fahrenheit, 80.6},
	}

	for _, tt := range tests {
		r, err := NormalizeObservation(observation(300.15), tt.unit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(r.Temperature-tt.want) > 1e-6 {
			t.Errorf("%s: temperature = %v, want %v", tt.unit, r.Temperature, tt.want)
		}
		if r.Unit != tt.unit {
			t.Errorf("unit = %s, want %s", r.Unit, tt.unit)
		}
	}
}

func TestNormalizeObservationFields(t *testing.T) {
	r, err := NormalizeObservation(observation(300.15), models.Celsius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", r.Timestamp.Location())
	}
	if !r.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", r.Timestamp)
	}
	if r.UTCOffset != -18000 {
		t.Errorf("utc offset = %d", r.UTCOffset)
	}
	if r.Location.Name != "Buffalo" || r.Location.Country != "US" {
		t.Errorf("location = %+v", r.Location)
	}
	if r.WindSpeed == nil || math.Abs(*r.WindSpeed-18) > tolerance {
		t.Errorf("wind speed = %v, want 18 km/h", r.WindSpeed)
	}
	if r.FeelsLike == nil || math.Abs(*r.FeelsLike-26) > 1e-6 {
		t.Errorf("feels like = %v, want 26", r.FeelsLike)
	}
	if r.Condition == nil || r.Condition.Label != "Clear sky" {
		t.Errorf("condition = %+v, want label %q", r.Condition, "Clear sky")
	}
}

func TestNormalizeObservationOptionalFieldsAbsent(t *testing.T) {
	raw := &models.RawObservation{
		Dt:   i64(1700000000),
		Main: models.RawMain{Temp: f64(280)},
	}

	r, err := NormalizeObservation(raw, models.Celsius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Humidity != nil || r.Pressure != nil || r.WindSpeed != nil || r.WindGust != nil || r.FeelsLike != nil {
		t.Errorf("expected absent optional fields, got %+v", r)
	}
	if r.Condition != nil {
		t.Errorf("expected no condition, got %+v", r.Condition)
	}
}

func TestNormalizeObservationMissingRequired(t *testing.T) {
	noTemp := observation(290)
	noTemp.Main.Temp = nil
	noTime := observation(290)
	noTime.Dt = nil

	tests := []struct {
		name  string
		raw   *models.RawObservation
		field string
	}{
		{"missing temperature", noTemp, "main.temp"},
		{"missing timestamp", noTime, "dt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NormalizeObservation(tt.raw, models.Celsius)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			if r != (models.NormalizedReading{}) {
				t.Errorf("expected zero reading, got %+v", r)
			}
		})
	}
}

func TestNormalizeForecastMissingEntryField(t *testing.T) {
	raw := &models.RawForecast{
		City: models.RawCity{Name: "Paris"},
		List: []models.RawForecastEntry{
			{Dt: i64(1700000000), Main: models.RawMain{Temp: f64(280)}},
			{Dt: i64(1700010800)},
		},
	}

	readings, err := NormalizeForecast(raw, models.Celsius)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Index != 1 || verr.Field != "main.temp" {
		t.Errorf("got %+v", verr)
	}
	if readings != nil {
		t.Errorf("expected no readings, got %d", len(readings))
	}
}

func TestNormalizeForecastPop(t *testing.T) {
	raw := &models.RawForecast{
		City: models.RawCity{Name: "Paris", Timezone: 3600},
		List: []models.RawForecastEntry{
			{Dt: i64(1700000000), Main: models.RawMain{Temp: f64(280)}, Pop: f64(0.35)},
		},
	}

	readings, err := NormalizeForecast(raw, models.Fahrenheit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("got %d readings", len(readings))
	}
	if p := readings[0].PrecipProbability; p == nil || math.Abs(*p-35) > 1e-9 {
		t.Errorf("precip probability = %v, want 35", p)
	}
	if readings[0].UTCOffset != 3600 || readings[0].Location.Name != "Paris" {
		t.Errorf("unexpected reading %+v", readings[0])
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Unit
		wantErr bool
	}{
		{"", models.Fahrenheit, false},
		{"C", models.Celsius, false},
		{"metric", models.Celsius, false},
		{"Fahrenheit", models.Fahrenheit, false},
		{"imperial", models.Fahrenheit, false},
		{"kelvin", "", true},
	}

	for _, tt := range tests {
		got, err := ParseUnit(tt.in, models.Fahrenheit)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnit(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
