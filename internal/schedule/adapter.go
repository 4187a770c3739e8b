package schedule

import (
	"time"

	"github.com/samber/mo"
)

// EventReader is the read side of a calendar store's event record.
type EventReader interface {
	AllDay() bool
	Start() time.Time
	End() time.Time
	Recurrence() mo.Option[Recurrence]
}

// EventWriter is the write side of a calendar store's event record.
type EventWriter interface {
	SetAllDay(allDay bool)
	SetStart(start time.Time)
	SetEnd(end time.Time)
	ClearRecurrence()
	SetRecurrence(rec Recurrence)
}

// FromEvent starts an edit session on ev. A nil reader yields an empty
// schedule, which is how an editor is cleared.
func FromEvent(ev EventReader, format TimeFormat) EventSchedule {
	if ev == nil {
		return EventSchedule{TimeFormat: format}
	}

	values := Values{
		AllDay:     ev.AllDay(),
		Start:      ev.Start(),
		End:        ev.End(),
		Recurrence: ev.Recurrence(),
	}
	if rec, ok := values.Recurrence.Get(); ok && rec.Frequency == FrequencyNone {
		values.Recurrence = mo.None[Recurrence]()
	}

	return EventSchedule{
		Original:   values,
		Current:    values,
		TimeFormat: format,
	}
}

// ApplyToEvent writes the current values onto ev. Stores keep all-day ends
// exclusive like the model does, so the end is written unchanged; an
// all-day end that is not after its start is widened to one day.
func ApplyToEvent(s EventSchedule, ev EventWriter) {
	current := s.Current

	end := current.End
	if current.AllDay && !end.After(current.Start) {
		end = startOfDay(current.Start, 1)
	}

	ev.SetAllDay(current.AllDay)
	ev.SetStart(current.Start)
	ev.SetEnd(end)

	ev.ClearRecurrence()
	if rec, ok := current.Recurrence.Get(); ok && rec.Frequency != FrequencyNone {
		ev.SetRecurrence(rec)
	}
}
