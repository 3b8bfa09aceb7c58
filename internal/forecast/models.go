// Package forecast turns raw upstream forecast payloads into normalized,
// timezone-correct views: a current snapshot, a rolling hourly window, the
// full current-day hourly slice, and a multi-day summary.
package forecast

import (
	"errors"
	"time"

	"github.com/skycast/skycast/internal/geocode"
)

// Forecast errors.
var (
	// ErrMalformedPayload means the upstream answered but omitted the
	// minimal hourly arrays (time + temperature) or broke their
	// alignment. Such payloads are never cached.
	ErrMalformedPayload = errors.New("malformed forecast payload")

	// ErrBadTimezone means the requested timezone name is unknown.
	ErrBadTimezone = errors.New("unknown timezone")
)

// Coordinate is a latitude/longitude pair. Full precision is used for
// upstream requests; cache keys round to three decimals.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HourlySlot is one displayable hour derived from the raw arrays. Nil
// fields were absent upstream. IsPast and IsNow are only meaningful in
// the today view.
type HourlySlot struct {
	Time                     time.Time `json:"time"`
	Temperature              *float64  `json:"temperature"`
	FeelsLike                *float64  `json:"feelsLike"`
	WindSpeed                *float64  `json:"windSpeed"`
	WindGusts                *float64  `json:"windGusts"`
	WindDirection            *float64  `json:"windDirection"`
	Precipitation            *float64  `json:"precipitation"`
	PrecipitationProbability *float64  `json:"precipitationProbability"`
	PrecipitationLabel       string    `json:"precipitationLabel"`
	WeatherCode              *int      `json:"weatherCode"`
	Icon                     string    `json:"icon"`
	Label                    string    `json:"label"`
	Humidity                 *float64  `json:"humidity"`
	UVIndex                  *float64  `json:"uvIndex"`
	IsPast                   bool      `json:"isPast"`
	IsNow                    bool      `json:"isNow"`
}

// DailySummary is one calendar day. AvgHumidity and AvgWindSpeed are
// computed from the hourly arrays bucketed by local date; they are nil
// when no hourly slot falls on the day.
type DailySummary struct {
	Date               string   `json:"date"`
	TempMin            *float64 `json:"tempMin"`
	TempMax            *float64 `json:"tempMax"`
	Precipitation      *float64 `json:"precipitation"`
	PrecipitationLabel string   `json:"precipitationLabel"`
	WeatherCode        *int     `json:"weatherCode"`
	Icon               string   `json:"icon"`
	Label              string   `json:"label"`
	UVIndexMax         *float64 `json:"uvIndexMax"`
	AvgHumidity        *float64 `json:"avgHumidity"`
	AvgWindSpeed       *float64 `json:"avgWindSpeed"`
}

// View is the assembled forecast handed to the presentation layer.
type View struct {
	Location     Coordinate     `json:"location"`
	Timezone     string         `json:"timezone"`
	Place        *geocode.Place `json:"place,omitempty"`
	Current      *HourlySlot    `json:"current,omitempty"`
	HourlyWindow []HourlySlot   `json:"hourlyWindow"`
	HoursToday   []HourlySlot   `json:"hoursToday"`
	Daily        []DailySummary `json:"daily"`
}
