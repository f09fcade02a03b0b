package normalizer

import (
	"math"
	"sort"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// trendWindow is the number of forecast slots averaged at each end of the
// window when computing the temperature trend (one day of 3-hour slots).
const trendWindow = SlotsPerDay

// ConditionDistribution counts condition labels, most frequent first. Equal
// counts keep the order in which the labels first occurred.
func ConditionDistribution(readings []models.NormalizedReading) []models.ConditionCount {
	var out []models.ConditionCount
	index := make(map[string]int)
	for _, r := range readings {
		if r.Condition == nil {
			continue
		}
		i, ok := index[r.Condition.Label]
		if !ok {
			i = len(out)
			index[r.Condition.Label] = i
			out = append(out, models.ConditionCount{Label: r.Condition.Label})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// ComputeKPIs derives the headline metrics shown above the charts.
func ComputeKPIs(current *models.NormalizedReading, forecast []models.NormalizedReading) models.KPIs {
	var kpis models.KPIs
	if current != nil {
		kpis.Unit = current.Unit
		t := round1(current.Temperature)
		kpis.CurrentTemperature = &t
	}
	if len(forecast) == 0 {
		return kpis
	}
	if kpis.Unit == "" {
		kpis.Unit = forecast[0].Unit
	}

	temps := make([]float64, 0, len(forecast))
	var humidity, wind []float64
	for _, r := range forecast {
		temps = append(temps, r.Temperature)
		if r.Humidity != nil {
			humidity = append(humidity, *r.Humidity)
		}
		if r.WindSpeed != nil {
			wind = append(wind, *r.WindSpeed)
		}
	}

	kpis.TemperatureTrend = temperatureTrend(temps)
	if len(humidity) > 0 {
		v := round1(mean(humidity))
		kpis.AverageHumidity = &v
	}
	if len(wind) > 0 {
		m := wind[0]
		for _, w := range wind[1:] {
			m = math.Max(m, w)
		}
		v := round1(m)
		kpis.MaxWindSpeed = &v
	}
	kpis.Stability = stability(temps, humidity, kpis.Unit)
	return kpis
}

func temperatureTrend(temps []float64) float64 {
	if len(temps) < 2 {
		return 0
	}
	n := trendWindow
	if len(temps) < n {
		n = len(temps)
	}
	first := mean(temps[:n])
	last := mean(temps[len(temps)-n:])
	return round1(last - first)
}

// stability scores 0..100, higher meaning less variation. The temperature
// term is calibrated for Celsius, so Fahrenheit variance is rescaled.
func stability(temps, humidity []float64, unit models.Unit) *float64 {
	varT, okT := sampleVariance(temps)
	varH, okH := sampleVariance(humidity)
	if !okT || !okH {
		return nil
	}
	if unit == models.Fahrenheit {
		varT *= (5.0 / 9.0) * (5.0 / 9.0)
	}
	tempScore := 100 * (1 / (1 + varT/10))
	humidityScore := 100 * (1 / (1 + varH/100))
	v := round1((tempScore + humidityScore) / 2)
	return &v
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleVariance(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
