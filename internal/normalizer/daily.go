package normalizer

import (
	"math"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// SlotsPerDay is the number of 3-hour forecast buckets in a full day.
const SlotsPerDay = 24 / 3

// GroupByDay splits readings by location-local calendar date. Groups appear
// in order of first occurrence and keep the input order of their readings.
func GroupByDay(readings []models.NormalizedReading) []models.DayGroup {
	var groups []models.DayGroup
	index := make(map[string]int)

	for _, r := range readings {
		date := r.LocalDate()
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, models.DayGroup{Date: date})
		}
		groups[i].Readings = append(groups[i].Readings, r)
	}
	return groups
}

// Flatten concatenates the readings of groups.
func Flatten(groups []models.DayGroup) []models.NormalizedReading {
	var out []models.NormalizedReading
	for _, g := range groups {
		out = append(out, g.Readings...)
	}
	return out
}

// AggregateDaily summarizes each calendar day of readings.
func AggregateDaily(readings []models.NormalizedReading) []models.DailyAggregate {
	groups := GroupByDay(readings)
	out := make([]models.DailyAggregate, 0, len(groups))
	for _, g := range groups {
		out = append(out, aggregateDay(g))
	}
	return out
}

func aggregateDay(g models.DayGroup) models.DailyAggregate {
	agg := models.DailyAggregate{
		Date:            g.Date,
		Entries:         len(g.Readings),
		ExpectedEntries: SlotsPerDay,
		Complete:        len(g.Readings) >= SlotsPerDay,
		MinTemperature:  math.Inf(1),
		MaxTemperature:  math.Inf(-1),
	}

	var sumTemp, sumHumidity float64
	var humidityCount int
	for _, r := range g.Readings {
		agg.Unit = r.Unit
		sumTemp += r.Temperature
		agg.MinTemperature = math.Min(agg.MinTemperature, r.Temperature)
		agg.MaxTemperature = math.Max(agg.MaxTemperature, r.Temperature)

		if r.Humidity != nil {
			sumHumidity += *r.Humidity
			humidityCount++
		}
		if r.WindSpeed != nil && (agg.MaxWindSpeed == nil || *r.WindSpeed > *agg.MaxWindSpeed) {
			w := *r.WindSpeed
			agg.MaxWindSpeed = &w
		}
	}

	agg.MeanTemperature = sumTemp / float64(len(g.Readings))
	if humidityCount > 0 {
		h := sumHumidity / float64(humidityCount)
		agg.MeanHumidity = &h
	}
	agg.DominantCondition = DominantCondition(g.Readings)
	return agg
}

// DominantCondition returns the most frequent condition label. Ties go to
// the label seen first; readings without a condition are ignored.
func DominantCondition(readings []models.NormalizedReading) *models.Condition {
	counts := ConditionDistribution(readings)
	if len(counts) == 0 {
		return nil
	}
	for _, r := range readings {
		if r.Condition != nil && r.Condition.Label == counts[0].Label {
			c := *r.Condition
			return &c
		}
	}
	return nil
}
