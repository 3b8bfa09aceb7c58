package forecast

import "math"

// Precipitation labels, ordered by severity.
const (
	PrecipNone     = "none"
	PrecipLight    = "light"
	PrecipModerate = "moderate"
	PrecipHeavy    = "heavy"
)

// WMO hourly intensity cutoffs in mm.
const (
	precipModerateMM = 2.5
	precipHeavyMM    = 7.6
)

// precipEpsilonMM is the amount below which a nominally rainy weather
// code is treated as dry.
const precipEpsilonMM = 0.1

// drizzleCutoffMM separates the drizzle icon from the rain icon once
// precipitation is measurable.
const drizzleCutoffMM = 2.5

// Classification pairs an icon identifier with a short display label.
type Classification struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// codeRule maps an inclusive WMO weather-code range to a classification.
// Rules are evaluated top to bottom; unmatched codes fall through to the
// neutral default.
type codeRule struct {
	lo, hi int
	class  Classification
}

var codeRules = []codeRule{
	{0, 0, Classification{Icon: "sun", Label: "Clear"}},
	{1, 2, Classification{Icon: "sun-cloud", Label: "Partly cloudy"}},
	{3, 3, Classification{Icon: "overcast", Label: "Overcast"}},
	{45, 48, Classification{Icon: "fog", Label: "Fog"}},
	{51, 57, Classification{Icon: "drizzle", Label: "Drizzle"}},
	{61, 67, Classification{Icon: "rain", Label: "Rain"}},
	{71, 77, Classification{Icon: "snow", Label: "Snow"}},
	{80, 82, Classification{Icon: "showers", Label: "Showers"}},
	{85, 86, Classification{Icon: "snow", Label: "Snow showers"}},
	{95, 99, Classification{Icon: "thunder", Label: "Thunderstorm"}},
}

var neutralClass = Classification{Icon: "cloud", Label: "Cloudy"}

// ClassifyCode maps a WMO weather code to an icon and label. Unknown or
// absent codes map to the neutral fallback, never an error.
func ClassifyCode(code *int) Classification {
	if code == nil {
		return neutralClass
	}
	for _, rule := range codeRules {
		if *code >= rule.lo && *code <= rule.hi {
			return rule.class
		}
	}
	return neutralClass
}

// PrecipLabel maps a precipitation amount in mm to a severity label.
// Absent or non-positive amounts map to "none".
func PrecipLabel(mm *float64) string {
	switch {
	case mm == nil || *mm <= 0:
		return PrecipNone
	case *mm < precipModerateMM:
		return PrecipLight
	case *mm < precipHeavyMM:
		return PrecipModerate
	default:
		return PrecipHeavy
	}
}

// HourlyState reconciles the code-based classification with the measured
// precipitation so the two never contradict on screen. A precipitation
// code without measurable precipitation is downgraded to plain clouds
// (code 3 keeps its distinct overcast icon via the table). Measurable
// precipitation drives the icon: drizzle or rain by intensity, except
// that snow-range codes always force the snow icon.
func HourlyState(code *int, precip *float64) Classification {
	mm := 0.0
	if precip != nil {
		mm = *precip
	}

	if mm <= precipEpsilonMM {
		if code != nil && isPrecipCode(*code) {
			return neutralClass
		}
		return ClassifyCode(code)
	}

	if code != nil && isSnowCode(*code) {
		return Classification{Icon: "snow", Label: "Snow"}
	}
	if mm >= drizzleCutoffMM {
		return Classification{Icon: "rain", Label: "Rain"}
	}
	return Classification{Icon: "drizzle", Label: "Light rain"}
}

// isPrecipCode reports whether the code nominally indicates any form of
// precipitation (drizzle, rain, snow, showers, thunder).
func isPrecipCode(code int) bool {
	return code >= 51
}

func isSnowCode(code int) bool {
	return (code >= 71 && code <= 77) || code == 85 || code == 86
}

// FeelsLike computes the apparent temperature from air temperature (°C),
// wind speed (km/h) and relative humidity (%), using the vapor-pressure
// formulation: AT = T + 0.33e - 0.70v - 4.0, with e in hPa and v in m/s.
// Returns nil when any input is absent.
func FeelsLike(tempC, windKmh, humidity *float64) *float64 {
	if tempC == nil || windKmh == nil || humidity == nil {
		return nil
	}

	t := *tempC
	windMs := *windKmh / 3.6
	vapor := (*humidity / 100) * 6.105 * math.Exp(17.27*t/(237.7+t))

	apparent := t + 0.33*vapor - 0.70*windMs - 4.0
	return &apparent
}

// Average returns the arithmetic mean of the non-nil values, or nil when
// every value is absent.
func Average(values []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
