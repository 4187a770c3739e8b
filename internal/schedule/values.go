package schedule

import (
	"time"

	"github.com/samber/mo"
)

// TimeFormat is the clock style used when rendering times.
type TimeFormat int

const (
	TimeFormat24h TimeFormat = iota
	TimeFormat12h
)

func (f TimeFormat) String() string {
	if f == TimeFormat12h {
		return "12h"
	}
	return "24h"
}

func ParseTimeFormat(value string) (TimeFormat, bool) {
	switch value {
	case "24h":
		return TimeFormat24h, true
	case "12h":
		return TimeFormat12h, true
	default:
		return TimeFormat24h, false
	}
}

// Values is one snapshot of an event's timing. For all-day values End is
// the midnight after the last day.
type Values struct {
	AllDay     bool
	Start      time.Time
	End        time.Time
	Recurrence mo.Option[Recurrence]
}

// EventSchedule pairs the values an edit session started from with the
// values it has reached. Transitions never touch Original.
type EventSchedule struct {
	Original   Values
	Current    Values
	TimeFormat TimeFormat
}

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two ranges share any instant.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
