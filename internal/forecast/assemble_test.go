package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/forecast"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/openmeteo"
)

// fourHourPayload builds hourly slots at T..T+3h with temperatures 16..19
// and a current snapshot at T.
func fourHourPayload() *openmeteo.ForecastResponse {
	return &openmeteo.ForecastResponse{
		Latitude:  52.52,
		Longitude: 13.41,
		Timezone:  "UTC",
		Hourly: openmeteo.HourlySeries{
			Time: []string{
				"2026-08-29T10:00", "2026-08-29T11:00",
				"2026-08-29T12:00", "2026-08-29T13:00",
			},
			Temperature:      []*float64{fptr(16), fptr(17), fptr(18), fptr(19)},
			RelativeHumidity: []*float64{fptr(70), fptr(65), fptr(60), fptr(55)},
			WindSpeed:        []*float64{fptr(10), fptr(12), fptr(14), fptr(16)},
			Precipitation:    []*float64{fptr(0), fptr(0), fptr(0.5), fptr(3.2)},
			WeatherCode:      []*int{iptr(1), iptr(2), iptr(61), iptr(63)},
			UVIndex:          []*float64{fptr(2), fptr(3), fptr(4), fptr(3)},
		},
		Current: &openmeteo.CurrentConditions{
			Time:        "2026-08-29T10:00",
			Temperature: fptr(16),
			WindSpeed:   fptr(10),
			WeatherCode: iptr(1),
		},
	}
}

func TestAssemble_RollingWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)

	view, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{Latitude: 52.52, Longitude: 13.41}, nil, "UTC", 2, now)
	require.NoError(t, err)

	require.Len(t, view.HourlyWindow, 2)
	assert.Equal(t, 16.0, *view.HourlyWindow[0].Temperature)
	assert.Equal(t, 17.0, *view.HourlyWindow[1].Temperature)
	assert.Equal(t, 10, view.HourlyWindow[0].Time.Hour())
	assert.Equal(t, 11, view.HourlyWindow[1].Time.Hour())
}

func TestAssemble_WindowNeverOverruns(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)
	payload := fourHourPayload()
	payload.Current.Time = "2026-08-29T12:30"

	// Pivot lands at index 3; only one slot remains.
	view, err := forecast.Assemble(payload, forecast.Coordinate{}, nil, "UTC", 12, now)
	require.NoError(t, err)

	require.Len(t, view.HourlyWindow, 1)
	assert.Equal(t, 19.0, *view.HourlyWindow[0].Temperature)
}

func TestAssemble_WindowWithoutCurrentStartsAtZero(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)
	payload := fourHourPayload()
	payload.Current = nil

	view, err := forecast.Assemble(payload, forecast.Coordinate{}, nil, "UTC", 3, now)
	require.NoError(t, err)

	assert.Nil(t, view.Current)
	require.Len(t, view.HourlyWindow, 3)
	assert.Equal(t, 16.0, *view.HourlyWindow[0].Temperature)
}

func TestAssemble_CurrentEnrichedFromHourly(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)

	view, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{}, nil, "UTC", 2, now)
	require.NoError(t, err)

	require.NotNil(t, view.Current)
	// Snapshot fields come from the current record.
	assert.Equal(t, 16.0, *view.Current.Temperature)
	// Humidity and UV come from the hourly slot at the pivot.
	require.NotNil(t, view.Current.Humidity)
	assert.Equal(t, 70.0, *view.Current.Humidity)
	require.NotNil(t, view.Current.UVIndex)
	assert.Equal(t, 2.0, *view.Current.UVIndex)
	// Feels-like is computed since the snapshot carries no apparent temp.
	require.NotNil(t, view.Current.FeelsLike)
}

func TestAssemble_HoursTodayFlags(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 40, 0, 0, time.UTC)

	view, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{}, nil, "UTC", 2, now)
	require.NoError(t, err)

	require.Len(t, view.HoursToday, 4)

	assert.True(t, view.HoursToday[0].IsPast)  // 10:00
	assert.True(t, view.HoursToday[1].IsPast)  // 11:00
	assert.True(t, view.HoursToday[2].IsPast)  // 12:00 < 12:40
	assert.False(t, view.HoursToday[3].IsPast) // 13:00

	assert.False(t, view.HoursToday[1].IsNow)
	assert.True(t, view.HoursToday[2].IsNow) // same hour of day
	assert.False(t, view.HoursToday[3].IsNow)
}

func TestAssemble_HoursTodayExcludesOtherDays(t *testing.T) {
	now := time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)
	payload := fourHourPayload()
	payload.Hourly.Time = []string{
		"2026-08-28T23:00", "2026-08-29T00:00",
		"2026-08-29T23:00", "2026-08-30T00:00",
	}
	payload.Current = nil

	view, err := forecast.Assemble(payload, forecast.Coordinate{}, nil, "UTC", 2, now)
	require.NoError(t, err)

	require.Len(t, view.HoursToday, 2)
	assert.Equal(t, 29, view.HoursToday[0].Time.Day())
	assert.Equal(t, 29, view.HoursToday[1].Time.Day())
}

func TestAssemble_DailyAverages(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)
	payload := fourHourPayload()
	payload.Daily = openmeteo.DailySeries{
		Time:             []string{"2026-08-29", "2026-08-30"},
		TemperatureMin:   []*float64{fptr(12), fptr(11)},
		TemperatureMax:   []*float64{fptr(21), fptr(20)},
		PrecipitationSum: []*float64{fptr(4.1), fptr(0)},
		WeatherCode:      []*int{iptr(61), iptr(2)},
		UVIndexMax:       []*float64{fptr(5), fptr(4)},
	}

	view, err := forecast.Assemble(payload, forecast.Coordinate{}, nil, "UTC", 2, now)
	require.NoError(t, err)

	require.Len(t, view.Daily, 2)

	day := view.Daily[0]
	assert.Equal(t, "2026-08-29", day.Date)
	assert.Equal(t, 12.0, *day.TempMin)
	assert.Equal(t, 21.0, *day.TempMax)
	assert.Equal(t, forecast.PrecipModerate, day.PrecipitationLabel)
	assert.Equal(t, "rain", day.Icon)
	require.NotNil(t, day.AvgHumidity)
	assert.InDelta(t, 62.5, *day.AvgHumidity, 0.001) // (70+65+60+55)/4
	require.NotNil(t, day.AvgWindSpeed)
	assert.InDelta(t, 13.0, *day.AvgWindSpeed, 0.001) // (10+12+14+16)/4

	// No hourly slot falls on the second day.
	assert.Nil(t, view.Daily[1].AvgHumidity)
	assert.Nil(t, view.Daily[1].AvgWindSpeed)
	assert.Equal(t, "sun-cloud", view.Daily[1].Icon)
}

func TestAssemble_SlotStateReconciliation(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)

	view, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{}, nil, "UTC", 4, now)
	require.NoError(t, err)
	require.Len(t, view.HourlyWindow, 4)

	// Rain code with 0.5mm renders as drizzle, with 3.2mm as rain.
	assert.Equal(t, "drizzle", view.HourlyWindow[2].Icon)
	assert.Equal(t, "rain", view.HourlyWindow[3].Icon)
	assert.Equal(t, forecast.PrecipLight, view.HourlyWindow[2].PrecipitationLabel)
	assert.Equal(t, forecast.PrecipModerate, view.HourlyWindow[3].PrecipitationLabel)
}

func TestAssemble_AttachesPlace(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)
	place := &geocode.Place{Name: "Berlin", Country: "Deutschland", Latitude: 52.52, Longitude: 13.41}

	view, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{Latitude: 52.52, Longitude: 13.41}, place, "UTC", 2, now)
	require.NoError(t, err)

	require.NotNil(t, view.Place)
	assert.Equal(t, "Berlin", view.Place.Name)
}

func TestAssemble_BadTimezone(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC)

	_, err := forecast.Assemble(fourHourPayload(), forecast.Coordinate{}, nil, "Mars/Olympus", 2, now)
	assert.ErrorIs(t, err, forecast.ErrBadTimezone)
}
