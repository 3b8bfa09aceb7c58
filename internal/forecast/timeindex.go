package forecast

import "time"

// Upstream timestamps are local wall-clock strings without an offset;
// they are only meaningful together with the payload's timezone.
const (
	hourlyTimeLayout = "2006-01-02T15:04"
	dailyDateLayout  = "2006-01-02"
)

func parseHourly(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(hourlyTimeLayout, raw, loc)
}

func parseDaily(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dailyDateLayout, raw, loc)
}

// LocateIndex returns the first index in times whose timestamp is at or
// after pivot, interpreting every timestamp in loc. When the pivot lies
// beyond the last slot, the last parseable index is returned so callers
// can still render something rather than nothing. Unparseable entries are
// skipped. Returns -1 only when no entry parses at all.
func LocateIndex(times []string, pivot time.Time, loc *time.Location) int {
	last := -1
	for i, raw := range times {
		ts, err := parseHourly(raw, loc)
		if err != nil {
			continue
		}
		if !ts.Before(pivot) {
			return i
		}
		last = i
	}
	return last
}
