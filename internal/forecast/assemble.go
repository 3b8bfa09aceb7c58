package forecast

import (
	"fmt"
	"time"

	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/openmeteo"
)

// Assemble builds the three output views from one raw payload. Derived
// fields are always computed fresh; the payload may well have come out of
// the cache. now anchors the today view and the is_past/is_now flags.
func Assemble(payload *openmeteo.ForecastResponse, coord Coordinate, place *geocode.Place, timezone string, windowHours int, now time.Time) (*View, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadTimezone, timezone)
	}
	now = now.In(loc)

	a := &assembler{payload: payload, loc: loc, now: now}

	view := &View{
		Location:     coord,
		Timezone:     timezone,
		Place:        place,
		HourlyWindow: []HourlySlot{},
		HoursToday:   []HourlySlot{},
		Daily:        []DailySummary{},
	}

	pivotIdx := a.pivotIndex()

	view.Current = a.currentSlot(pivotIdx)
	view.HourlyWindow = a.window(pivotIdx, windowHours)
	view.HoursToday = a.today()
	view.Daily = a.daily()

	return view, nil
}

type assembler struct {
	payload *openmeteo.ForecastResponse
	loc     *time.Location
	now     time.Time
}

// pivotIndex locates "now" in the hourly series: the slot at or after the
// current snapshot's timestamp, falling back to wall-clock now when the
// payload has no snapshot.
func (a *assembler) pivotIndex() int {
	pivot := a.now
	if a.payload.Current != nil {
		if ts, err := parseHourly(a.payload.Current.Time, a.loc); err == nil {
			pivot = ts
		}
	}
	return LocateIndex(a.payload.Hourly.Time, pivot, a.loc)
}

// slotAt derives one displayable slot from hourly index i. There is
// exactly one code path from a raw index to a slot; the current, window
// and today views all go through it.
func (a *assembler) slotAt(i int) (HourlySlot, bool) {
	hourly := a.payload.Hourly
	if i < 0 || i >= len(hourly.Time) {
		return HourlySlot{}, false
	}

	ts, err := parseHourly(hourly.Time[i], a.loc)
	if err != nil {
		return HourlySlot{}, false
	}

	temp := floatAt(hourly.Temperature, i)
	wind := floatAt(hourly.WindSpeed, i)
	humidity := floatAt(hourly.RelativeHumidity, i)
	precip := floatAt(hourly.Precipitation, i)
	code := intAt(hourly.WeatherCode, i)

	// The upstream apparent temperature wins over the computed one.
	feels := floatAt(hourly.ApparentTemperature, i)
	if feels == nil {
		feels = FeelsLike(temp, wind, humidity)
	}

	state := HourlyState(code, precip)

	return HourlySlot{
		Time:                     ts,
		Temperature:              temp,
		FeelsLike:                feels,
		WindSpeed:                wind,
		WindGusts:                floatAt(hourly.WindGusts, i),
		WindDirection:            floatAt(hourly.WindDirection, i),
		Precipitation:            precip,
		PrecipitationProbability: floatAt(hourly.PrecipitationProbability, i),
		PrecipitationLabel:       PrecipLabel(precip),
		WeatherCode:              code,
		Icon:                     state.Icon,
		Label:                    state.Label,
		Humidity:                 humidity,
		UVIndex:                  floatAt(hourly.UVIndex, i),
	}, true
}

// currentSlot merges the snapshot record with the hourly slot at the
// pivot index, which supplies the fields the snapshot does not carry
// (humidity, UV, gusts, precipitation probability).
func (a *assembler) currentSlot(pivotIdx int) *HourlySlot {
	cur := a.payload.Current
	if cur == nil {
		return nil
	}

	ts, err := parseHourly(cur.Time, a.loc)
	if err != nil {
		return nil
	}

	slot := HourlySlot{Time: ts}
	if enriched, ok := a.slotAt(pivotIdx); ok {
		slot = enriched
		slot.Time = ts
	}

	slot.Temperature = cur.Temperature
	slot.WindSpeed = cur.WindSpeed
	slot.WindDirection = cur.WindDirection
	slot.Precipitation = cur.Precipitation
	slot.PrecipitationLabel = PrecipLabel(cur.Precipitation)
	slot.WeatherCode = cur.WeatherCode

	state := HourlyState(cur.WeatherCode, cur.Precipitation)
	slot.Icon = state.Icon
	slot.Label = state.Label

	feels := cur.ApparentTemperature
	if feels == nil {
		feels = FeelsLike(cur.Temperature, cur.WindSpeed, slot.Humidity)
	}
	slot.FeelsLike = feels

	return &slot
}

// window returns up to windowHours consecutive slots starting at the
// pivot, never reading past the end of the arrays.
func (a *assembler) window(pivotIdx, windowHours int) []HourlySlot {
	start := pivotIdx
	if start < 0 {
		start = 0
	}

	slots := make([]HourlySlot, 0, windowHours)
	for i := start; i < len(a.payload.Hourly.Time) && len(slots) < windowHours; i++ {
		if slot, ok := a.slotAt(i); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// today returns every slot of the current local day, flagged with
// is_past and is_now relative to the anchor time.
func (a *assembler) today() []HourlySlot {
	dayStart := time.Date(a.now.Year(), a.now.Month(), a.now.Day(), 0, 0, 0, 0, a.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var slots []HourlySlot
	for i := range a.payload.Hourly.Time {
		slot, ok := a.slotAt(i)
		if !ok {
			continue
		}
		if slot.Time.Before(dayStart) || !slot.Time.Before(dayEnd) {
			continue
		}
		slot.IsPast = slot.Time.Before(a.now)
		slot.IsNow = slot.Time.Hour() == a.now.Hour()
		slots = append(slots, slot)
	}
	if slots == nil {
		slots = []HourlySlot{}
	}
	return slots
}

// daily builds one summary per daily entry, enriched with humidity and
// wind averages computed by bucketing the hourly arrays by local date.
func (a *assembler) daily() []DailySummary {
	daily := a.payload.Daily

	type bucket struct {
		humidity []*float64
		wind     []*float64
	}
	buckets := make(map[string]*bucket)
	for i, raw := range a.payload.Hourly.Time {
		ts, err := parseHourly(raw, a.loc)
		if err != nil {
			continue
		}
		day := ts.Format(dailyDateLayout)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.humidity = append(b.humidity, floatAt(a.payload.Hourly.RelativeHumidity, i))
		b.wind = append(b.wind, floatAt(a.payload.Hourly.WindSpeed, i))
	}

	summaries := make([]DailySummary, 0, len(daily.Time))
	for i, date := range daily.Time {
		precip := floatAt(daily.PrecipitationSum, i)
		code := intAt(daily.WeatherCode, i)
		class := ClassifyCode(code)

		summary := DailySummary{
			Date:               date,
			TempMin:            floatAt(daily.TemperatureMin, i),
			TempMax:            floatAt(daily.TemperatureMax, i),
			Precipitation:      precip,
			PrecipitationLabel: PrecipLabel(precip),
			WeatherCode:        code,
			Icon:               class.Icon,
			Label:              class.Label,
			UVIndexMax:         floatAt(daily.UVIndexMax, i),
		}

		if b, ok := buckets[date]; ok {
			summary.AvgHumidity = Average(b.humidity)
			summary.AvgWindSpeed = Average(b.wind)
		}

		summaries = append(summaries, summary)
	}
	return summaries
}

// floatAt returns the value at index i, or nil when the array is missing,
// shorter than the time axis, or holds a null there.
func floatAt(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func intAt(values []*int, i int) *int {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}
