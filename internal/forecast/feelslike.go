package forecast

import "math"

// FeelsLikeParams holds the thresholds and coefficients for FeelsLike.
// This is a coarse heuristic, not a calibrated apparent-temperature model.
type FeelsLikeParams struct {
	HotTemp         float64 // °C above which humidity raises the felt temperature
	HumidThreshold  float64 // % relative humidity
	HumidityDivisor float64
	ColdTemp        float64 // °C below which wind lowers the felt temperature
	WindThreshold   float64 // km/h
	WindDivisor     float64
}

var DefaultFeelsLike = FeelsLikeParams{
	HotTemp:         27,
	HumidThreshold:  40,
	HumidityDivisor: 10,
	ColdTemp:        10,
	WindThreshold:   5,
	WindDivisor:     5,
}

// FeelsLike returns the approximate felt temperature using DefaultFeelsLike.
func FeelsLike(temp, humidity, windSpeed float64) float64 {
	return DefaultFeelsLike.Apply(temp, humidity, windSpeed)
}

func (p FeelsLikeParams) Apply(temp, humidity, windSpeed float64) float64 {
	if temp > p.HotTemp && humidity > p.HumidThreshold {
		return temp + (humidity-p.HumidThreshold)/p.HumidityDivisor
	}
	if temp < p.ColdTemp && windSpeed > p.WindThreshold {
		return temp - (windSpeed-p.WindThreshold)/p.WindDivisor
	}
	return temp
}

// Round rounds half up, so -2.5 becomes -2. Every displayed temperature goes
// through it.
func Round(f float64) int {
	return int(math.Floor(f + 0.5))
}
