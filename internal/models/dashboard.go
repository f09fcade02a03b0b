package models

import "time"

type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

type SeriesPoint struct {
	Time      time.Time `json:"time"`
	LocalTime string    `json:"local_time"`
	Value     float64   `json:"value"`
}

type MapView struct {
	Center [2]float64  `json:"center"`
	Zoom   int         `json:"zoom"`
	Marker *[2]float64 `json:"marker"`
}

// DashboardView is everything the page needs to render one refresh.
type DashboardView struct {
	RefreshID         string              `json:"refresh_id"`
	Location          Location            `json:"location"`
	Unit              Unit                `json:"unit"`
	Current           NormalizedReading   `json:"current"`
	Forecast          []NormalizedReading `json:"forecast"`
	Daily             []DailyAggregate    `json:"daily"`
	KPIs              KPIs                `json:"kpis"`
	Cards             []MetricCard        `json:"cards"`
	TemperatureSeries []SeriesPoint       `json:"temperature_series"`
	Conditions        []ConditionCount    `json:"conditions"`
	Map               MapView             `json:"map"`
	FetchedAt         time.Time           `json:"fetched_at"`
}
