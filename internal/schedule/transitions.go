package schedule

import (
	"time"

	"github.com/samber/mo"
)

// Every transition takes the schedule by value and returns the edited copy.
// Only Current changes.

// SetAllDay toggles the all-day flag. Entering all-day widens the range to
// whole days; leaving it keeps the days and restores the times of day the
// session started with.
func SetAllDay(s EventSchedule, allDay bool) EventSchedule {
	if s.Current.AllDay == allDay {
		return s
	}

	start := s.Current.Start
	end := s.Current.End

	if allDay {
		s.Current.Start = startOfDay(start, 0)
		s.Current.End = startOfDay(end, 1)
	} else {
		s.Current.Start = withTimeOf(start, 0, s.Original.Start)
		s.Current.End = withTimeOf(end, -1, s.Original.End)
		if s.Current.End.Before(s.Current.Start) {
			s.Current.End = s.Current.Start
		}
	}

	s.Current.AllDay = allDay
	return s
}

func SetTimeFormat(s EventSchedule, format TimeFormat) EventSchedule {
	s.TimeFormat = format
	return s
}

// SetStartDate moves the start. An end before the new start snaps to it.
func SetStartDate(s EventSchedule, start time.Time) EventSchedule {
	s.Current.Start = start
	if start.After(s.Current.End) {
		s.Current.End = start
	}
	return s
}

// SetEndDate moves the end. For all-day values end is the last day shown to
// the user and is stored as the following midnight. A start after the new
// end snaps to it.
func SetEndDate(s EventSchedule, end time.Time) EventSchedule {
	if s.Current.AllDay {
		end = end.AddDate(0, 0, 1)
	}
	s.Current.End = end
	if s.Current.Start.After(end) {
		s.Current.Start = end
	}
	return s
}

// SetStartDateTime moves the start instant. When it passes the end, the end
// moves to one hour after the new start, kept in the end's own zone.
func SetStartDateTime(s EventSchedule, start time.Time) EventSchedule {
	s.Current.Start = start
	if start.After(s.Current.End) {
		s.Current.End = start.Add(time.Hour).In(s.Current.End.Location())
	}
	return s
}

// SetEndDateTime moves the end instant. When it falls before the start, the
// start moves to one hour before the new end, kept in the start's own zone.
func SetEndDateTime(s EventSchedule, end time.Time) EventSchedule {
	s.Current.End = end
	if s.Current.Start.After(end) {
		s.Current.Start = end.Add(-time.Hour).In(s.Current.Start.Location())
	}
	return s
}

func SetRecurFrequency(s EventSchedule, freq Frequency) EventSchedule {
	s.Current.Recurrence = ChangeFrequency(s.Current.Recurrence, freq)
	return s
}

// SetRecurLimitType panics if the event does not repeat yet.
func SetRecurLimitType(s EventSchedule, limit LimitType) EventSchedule {
	s.Current.Recurrence = mo.Some(ChangeLimitType(s.Current.Recurrence, limit, s.Current.Start))
	return s
}

// SetRecurrenceCount panics unless the event repeats with a count limit.
func SetRecurrenceCount(s EventSchedule, count uint) EventSchedule {
	rec := mustRepeatWith(s.Current.Recurrence, LimitCount)
	rec.Count = count
	s.Current.Recurrence = mo.Some(rec)
	return s
}

// SetRecurrenceUntil panics unless the event repeats with an until limit.
func SetRecurrenceUntil(s EventSchedule, until time.Time) EventSchedule {
	rec := mustRepeatWith(s.Current.Recurrence, LimitUntil)
	rec.Until = until
	s.Current.Recurrence = mo.Some(rec)
	return s
}

func mustRepeatWith(opt mo.Option[Recurrence], limit LimitType) Recurrence {
	rec, ok := opt.Get()
	if !ok || rec.Frequency == FrequencyNone {
		panic("schedule: recurrence limit set on an event that does not repeat")
	}
	if rec.Limit != limit {
		panic("schedule: recurrence limit is " + rec.Limit.String() + ", not " + limit.String())
	}
	return rec
}

// startOfDay is midnight of t's calendar day plus days, in t's zone.
func startOfDay(t time.Time, days int) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+days, 0, 0, 0, 0, t.Location())
}

// withTimeOf combines the calendar day of day (shifted by days) with the
// time of day of clock.
func withTimeOf(day time.Time, days int, clock time.Time) time.Time {
	year, month, dom := day.Date()
	hour, minute, second := clock.Clock()
	return time.Date(year, month, dom+days, hour, minute, second, 0, day.Location())
}
