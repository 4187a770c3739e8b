package event

import (
	"time"

	"github.com/rbright/eds-schedule/internal/schedule"
)

// Compare orders events for display: all-day events first, then by start,
// then longer events first. Nil events sort last.
func Compare(a, b *Event) int {
	if a == nil || b == nil {
		return compareNil(a, b)
	}

	if a.allDay != b.allDay {
		if a.allDay {
			return -1
		}
		return 1
	}

	if c := a.start.Compare(b.start); c != 0 {
		return c
	}

	spanA := a.end.Sub(a.start)
	spanB := b.end.Sub(b.start)
	return compareDurations(spanB, spanA)
}

// CompareWithCurrent orders events by how close their start is to now. An
// event starting exactly now comes first, upcoming events beat past ones,
// the nearest upcoming event wins and the most recent past event wins.
func CompareWithCurrent(a, b *Event, now time.Time) int {
	if a == nil || b == nil {
		return compareNil(a, b)
	}

	deltaA := a.start.Unix() - now.Unix()
	deltaB := b.start.Unix() - now.Unix()

	switch {
	case deltaA == deltaB:
		return 0
	case deltaA == 0:
		return -1
	case deltaB == 0:
		return 1
	case deltaA > 0 && deltaB > 0:
		return compareInts(deltaA, deltaB)
	case deltaA < 0 && deltaB < 0:
		return compareInts(deltaB, deltaA)
	case deltaA > 0:
		return -1
	default:
		return 1
	}
}

// IsMultiday reports whether the event covers more than one calendar day in
// the local zone.
func (e *Event) IsMultiday() bool {
	return e.isMultidayIn(time.Local)
}

func (e *Event) isMultidayIn(loc *time.Location) bool {
	start := e.start
	last := e.end.Add(-time.Second)

	if e.allDay {
		y, m, d := start.Date()
		if time.Date(y, m, d+1, 0, 0, 0, 0, start.Location()).Equal(e.end) {
			return false
		}
	} else {
		start = start.In(loc)
		last = last.In(loc)
	}

	sy, sm, sd := start.Date()
	ly, lm, ld := last.Date()
	return sy != ly || sm != lm || sd != ld
}

// Overlaps reports whether the event's [start, end) range meets r.
func (e *Event) Overlaps(r schedule.Range) bool {
	return schedule.Range{Start: e.start, End: e.end}.Overlaps(r)
}

func compareNil(a, b *Event) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	default:
		return -1
	}
}

func compareDurations(a, b time.Duration) int {
	return compareInts(int64(a), int64(b))
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
