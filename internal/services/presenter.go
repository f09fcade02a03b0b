package services

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const notAvailable = "n/a"

// MapSettings is the map state before any location is selected.
type MapSettings struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
}

// ViewInput carries one refresh worth of normalized data to BuildView.
type ViewInput struct {
	RefreshID  string
	Current    models.NormalizedReading
	Forecast   []models.NormalizedReading
	Daily      []models.DailyAggregate
	KPIs       models.KPIs
	Conditions []models.ConditionCount
	Map        MapSettings
	FetchedAt  time.Time
}

// BuildView shapes normalized data into cards, chart series and map state.
func BuildView(in ViewInput) *models.DashboardView {
	loc := in.Current.Location
	marker := [2]float64{loc.Lat, loc.Lon}

	view := &models.DashboardView{
		RefreshID:  in.RefreshID,
		Location:   loc,
		Unit:       in.Current.Unit,
		Current:    in.Current,
		Forecast:   in.Forecast,
		Daily:      in.Daily,
		KPIs:       in.KPIs,
		Conditions: in.Conditions,
		Map: models.MapView{
			Center: marker,
			Zoom:   in.Map.Zoom,
			Marker: &marker,
		},
		FetchedAt: in.FetchedAt,
	}
	if view.Forecast == nil {
		view.Forecast = []models.NormalizedReading{}
	}

	view.Cards = MetricCards(in.Current, in.KPIs)

	view.TemperatureSeries = make([]models.SeriesPoint, 0, len(in.Forecast))
	for _, r := range in.Forecast {
		view.TemperatureSeries = append(view.TemperatureSeries, models.SeriesPoint{
			Time:      r.Timestamp,
			LocalTime: r.LocalTime().Format("2006-01-02 15:04"),
			Value:     r.Temperature,
		})
	}
	return view
}

// MetricCards renders the headline metrics for the current reading.
func MetricCards(current models.NormalizedReading, kpis models.KPIs) []models.MetricCard {
	return []models.MetricCard{
		{
			Label: "Temperature",
			Value: FormatTemperature(current.Temperature, current.Unit),
			Delta: fmt.Sprintf("%+.1f%s", kpis.TemperatureTrend, current.Unit.Symbol()),
		},
		{Label: "Humidity", Value: formatOptional(current.Humidity, "%.0f%%")},
		{Label: "Wind Speed", Value: formatOptional(current.WindSpeed, "%.1f km/h")},
		{Label: "Pressure", Value: formatOptional(current.Pressure, "%.0f hPa")},
	}
}

// FormatTemperature renders a temperature with one decimal and its unit.
func FormatTemperature(v float64, unit models.Unit) string {
	return fmt.Sprintf("%.1f%s", v, unit.Symbol())
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf(format, *v)
}
