package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// Symbol returns the display suffix for temperatures in this unit.
func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type Place struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label renders the place the way the search selector shows it.
func (p Place) Label() string {
	parts := []string{p.Name}
	for _, s := range []string{p.State, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// LocationQuery selects a location either by city name or by coordinates.
type LocationQuery struct {
	City string
	Lat  *float64
	Lon  *float64
}

func (q LocationQuery) HasCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

// Key is the canonical cache key for the query. Coordinates are rounded to
// four decimals (about 11 m) so repeated map clicks share entries.
func (q LocationQuery) Key() string {
	if q.HasCoordinates() {
		return "coord:" + strconv.FormatFloat(*q.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(*q.Lon, 'f', 4, 64)
	}
	return "city:" + strings.ToLower(strings.TrimSpace(q.City))
}

func (q LocationQuery) String() string {
	if q.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *q.Lat, *q.Lon)
	}
	return q.City
}

type Condition struct {
	ID    int    `json:"id"`
	Main  string `json:"main"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// NormalizedReading is a provider record after unit conversion. Optional
// measurements are nil when the provider omitted them.
type NormalizedReading struct {
	Location          Location   `json:"location"`
	Timestamp         time.Time  `json:"timestamp"` // always UTC
	UTCOffset         int        `json:"utc_offset"`
	Unit              Unit       `json:"unit"`
	Temperature       float64    `json:"temperature"`
	FeelsLike         *float64   `json:"feels_like"`
	Humidity          *float64   `json:"humidity"`
	Pressure          *float64   `json:"pressure"`
	WindSpeed         *float64   `json:"wind_speed"`
	WindDirection     *float64   `json:"wind_direction"`
	WindGust          *float64   `json:"wind_gust"`
	PrecipProbability *float64   `json:"precip_probability"`
	Condition         *Condition `json:"condition"`
}

// LocalTime returns the timestamp in the location's own offset.
func (r NormalizedReading) LocalTime() time.Time {
	return r.Timestamp.In(time.FixedZone("", r.UTCOffset))
}

// LocalDate is the location-local calendar date, formatted YYYY-MM-DD.
func (r NormalizedReading) LocalDate() string {
	return r.LocalTime().Format("2006-01-02")
}

type DayGroup struct {
	Date     string              `json:"date"`
	Readings []NormalizedReading `json:"readings"`
}

type DailyAggregate struct {
	Date              string     `json:"date"`
	Unit              Unit       `json:"unit"`
	MinTemperature    float64    `json:"min_temperature"`
	MaxTemperature    float64    `json:"max_temperature"`
	MeanTemperature   float64    `json:"mean_temperature"`
	MeanHumidity      *float64   `json:"mean_humidity"`
	MaxWindSpeed      *float64   `json:"max_wind_speed"`
	DominantCondition *Condition `json:"dominant_condition"`
	Entries           int        `json:"entries"`
	ExpectedEntries   int        `json:"expected_entries"`
	Complete          bool       `json:"complete"`
}

type KPIs struct {
	Unit               Unit     `json:"unit"`
	CurrentTemperature *float64 `json:"current_temperature"`
	TemperatureTrend   float64  `json:"temperature_trend"`
	AverageHumidity    *float64 `json:"average_humidity"`
	MaxWindSpeed       *float64 `json:"max_wind_speed"`
	Stability          *float64 `json:"weather_stability"`
}

type ConditionCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ForecastView struct {
	Location Location            `json:"location"`
	Unit     Unit                `json:"unit"`
	Readings []NormalizedReading `json:"readings"`
	Daily    []DailyAggregate    `json:"daily"`
}
