package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// parseDate reads YYYY-MM-DD as midnight in loc. "today" and "tomorrow" are
// accepted too.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(value) {
	case "today":
		return midnight(now().In(loc)), nil
	case "tomorrow":
		return midnight(now().In(loc)).AddDate(0, 0, 1), nil
	}

	parsed, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed, nil
}

// parseDateTime reads a local YYYY-MM-DDTHH:MM in loc, or an RFC 3339
// timestamp which keeps its own offset.
func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	for _, layout := range []string{dateTimeLayout, "2006-01-02 15:04"} {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q (expected YYYY-MM-DDTHH:MM)", value)
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q (expected on|off)", value)
	}
}

func parseCount(value string) (uint, error) {
	count, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil || count == 0 {
		return 0, fmt.Errorf("invalid count %q (expected a positive number)", value)
	}
	return uint(count), nil
}

// onDay moves clock to the calendar day of day, keeping its wall time and
// zone.
func onDay(day, clock time.Time) time.Time {
	loc := clock.Location()
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
