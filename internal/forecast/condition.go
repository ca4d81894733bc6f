package forecast

// WMO weather interpretation codes as returned by Open-Meteo.
// See https://open-meteo.com/en/docs#weathervariables.

// DefaultDescription is returned for codes with no entry in the table.
const DefaultDescription = "Weather"

var descriptions = map[int]string{
	0:  "Clear",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Rime Fog",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Dense Drizzle",
	61: "Slight Rain",
	63: "Rain",
	65: "Heavy Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	80: "Showers",
	81: "Heavy Showers",
	95: "Thunderstorm",
	96: "Thunderstorm + Hail",
}

// Describe returns a human description for a weather code.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return DefaultDescription
}

const (
	IconSun   = "https://img.icons8.com/color/96/sun--v1.png"
	IconCloud = "https://img.icons8.com/color/96/cloud.png"
	IconFog   = "https://img.icons8.com/color/96/fog-day.png"
	IconRain  = "https://img.icons8.com/color/96/rain.png"
	IconSnow  = "https://img.icons8.com/color/96/snow.png"
	IconStorm = "https://img.icons8.com/color/96/storm.png"
)

// Icon returns the icon URL for a weather code. Unmapped codes get the cloud icon.
func Icon(code int) string {
	switch {
	case code == 0 || code == 1:
		return IconSun
	case code == 2 || code == 3:
		return IconCloud
	case code == 45 || code == 48:
		return IconFog
	case between(code, 51, 67) || between(code, 80, 82):
		return IconRain
	case between(code, 71, 77) || between(code, 85, 86):
		return IconSnow
	case code >= 95:
		return IconStorm
	default:
		return IconCloud
	}
}

const (
	VideoSunny  = "https://res.cloudinary.com/dnhm4glyx/video/upload/v1754644015/sunny_weather_hmhd8d.mp4"
	VideoCloudy = "https://res.cloudinary.com/dnhm4glyx/video/upload/v1754643965/cloudy_weather_ub0bue.mp4"
	VideoFog    = "https://res.cloudinary.com/dnhm4glyx/video/upload/v1754644156/fog_qwtjpm.mp4"
	VideoRain   = "https://res.cloudinary.com/dnhm4glyx/video/upload/v1754644213/forest_fog_psg0no.mp4"
	VideoSnow   = "https://cdn.pixabay.com/video/2022/11/18/139519-772542591_large.mp4"
	VideoStorm  = "https://cdn.pixabay.com/video/2023/04/30/161060-822582126_large.mp4"
	VideoClear  = "https://res.cloudinary.com/dnhm4glyx/video/upload/v1754643992/clear_weather_d8c80n.mp4"
)

// Video returns the background video URL for a weather code.
func Video(code int) string {
	switch {
	case code == 0 || code == 1:
		return VideoSunny
	case code == 2 || code == 3:
		return VideoCloudy
	case code == 45 || code == 48:
		return VideoFog
	case between(code, 51, 67):
		return VideoRain
	case between(code, 71, 77):
		return VideoSnow
	case between(code, 80, 99):
		return VideoStorm
	default:
		return VideoClear
	}
}

func between(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// UVCategory labels a UV index reading.
func UVCategory(uv float64) string {
	switch {
	case uv <= 2:
		return "Low"
	case uv <= 5:
		return "Moderate"
	case uv <= 7:
		return "High"
	case uv <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// AQICategory labels a US AQI reading using the EPA bands.
func AQICategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// WeatherCondition is a coarse category of a weather code, used to pick page palettes.
type WeatherCondition string

const (
	ConditionClear  WeatherCondition = "clear"
	ConditionCloudy WeatherCondition = "cloudy"
	ConditionFog    WeatherCondition = "fog"
	ConditionRain   WeatherCondition = "rain"
	ConditionSnow   WeatherCondition = "snow"
	ConditionStorm  WeatherCondition = "storm"
)

// Classify buckets a weather code into a WeatherCondition.
func Classify(code int) WeatherCondition {
	switch {
	case code <= 1:
		return ConditionClear
	case code == 2 || code == 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case between(code, 51, 67) || between(code, 80, 82):
		return ConditionRain
	case between(code, 71, 77) || between(code, 85, 86):
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionCloudy
	}
}
