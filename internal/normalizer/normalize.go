// Package normalizer turns raw OpenWeatherMap records into uniform readings
// and derives daily aggregates and dashboard KPIs from them.
package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const (
	kelvinOffset = 273.15
	msToKmh      = 3.6
)

// ValidationError reports a required field missing from a raw record.
// Index is the position inside a forecast list, or -1 for a single record.
type ValidationError struct {
	Field string
	Index int
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("forecast entry %d: missing required field %q", e.Index, e.Field)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ParseUnit maps user input to a display unit. An empty string yields def.
func ParseUnit(s string, def models.Unit) (models.Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "c", "celsius", "metric":
		return models.Celsius, nil
	case "f", "fahrenheit", "imperial":
		return models.Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// ConvertKelvin converts a Kelvin temperature into unit.
func ConvertKelvin(k float64, unit models.Unit) float64 {
	c := k - kelvinOffset
	if unit == models.Fahrenheit {
		return c*9/5 + 32
	}
	return c
}

// NormalizeObservation converts a current-weather record.
func NormalizeObservation(raw *models.RawObservation, unit models.Unit) (models.NormalizedReading, error) {
	if raw == nil {
		return models.NormalizedReading{}, &ValidationError{Field: "observation", Index: -1}
	}
	loc := models.Location{
		Name:    raw.Name,
		Country: raw.Sys.Country,
		Lat:     raw.Coord.Lat,
		Lon:     raw.Coord.Lon,
	}
	return normalize(loc, raw.Timezone, raw.Dt, raw.Main, raw.Wind, raw.Weather, nil, unit, -1)
}

// NormalizeForecast converts every entry of a forecast response. A single
// invalid entry fails the whole call; the result is in chronological order.
func NormalizeForecast(raw *models.RawForecast, unit models.Unit) ([]models.NormalizedReading, error) {
	if raw == nil {
		return nil, &ValidationError{Field: "forecast", Index: -1}
	}
	loc := models.Location{
		Name:    raw.City.Name,
		Country: raw.City.Country,
		Lat:     raw.City.Coord.Lat,
		Lon:     raw.City.Coord.Lon,
	}

	readings := make([]models.NormalizedReading, 0, len(raw.List))
	for i, entry := range raw.List {
		r, err := normalize(loc, raw.City.Timezone, entry.Dt, entry.Main, entry.Wind, entry.Weather, entry.Pop, unit, i)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return readings, nil
}

func normalize(
	loc models.Location,
	offset int,
	dt *int64,
	main models.RawMain,
	wind *models.RawWind,
	conditions []models.RawCondition,
	pop *float64,
	unit models.Unit,
	index int,
) (models.NormalizedReading, error) {
	if dt == nil {
		return models.NormalizedReading{}, &ValidationError{Field: "dt", Index: index}
	}
	if main.Temp == nil {
		return models.NormalizedReading{}, &ValidationError{Field: "main.temp", Index: index}
	}

	reading := models.NormalizedReading{
		Location:    loc,
		Timestamp:   time.Unix(*dt, 0).UTC(),
		UTCOffset:   offset,
		Unit:        unit,
		Temperature: ConvertKelvin(*main.Temp, unit),
		Humidity:    copyFloat(main.Humidity),
		Pressure:    copyFloat(main.Pressure),
		Condition:   condition(conditions),
	}
	if main.FeelsLike != nil {
		v := ConvertKelvin(*main.FeelsLike, unit)
		reading.FeelsLike = &v
	}
	if wind != nil {
		reading.WindSpeed = scale(wind.Speed, msToKmh)
		reading.WindGust = scale(wind.Gust, msToKmh)
		reading.WindDirection = copyFloat(wind.Deg)
	}
	// pop is a 0..1 probability
	reading.PrecipProbability = scale(pop, 100)

	return reading, nil
}

func condition(items []models.RawCondition) *models.Condition {
	if len(items) == 0 {
		return nil
	}
	c := items[0]
	label := capitalize(c.Description)
	if label == "" {
		label = c.Main
	}
	if label == "" {
		return nil
	}
	return &models.Condition{
		ID:    c.ID,
		Main:  c.Main,
		Label: label,
		Icon:  c.Icon,
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v * factor
	return &out
}
