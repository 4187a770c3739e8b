package schedule

import "time"

// Scope is which occurrences of a recurring event a save applies to.
type Scope int

const (
	ScopeUnset Scope = iota
	ScopeThis
	ScopeThisAndFuture
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeThis:
		return "this"
	case ScopeThisAndFuture:
		return "future"
	case ScopeAll:
		return "all"
	default:
		return "unset"
	}
}

func ParseScope(value string) (Scope, bool) {
	switch value {
	case "this":
		return ScopeThis, true
	case "future":
		return ScopeThisAndFuture, true
	case "all":
		return ScopeAll, true
	default:
		return ScopeUnset, false
	}
}

func RecurrenceChanged(s EventSchedule) bool {
	return !RecurrenceEqual(s.Original.Recurrence, s.Current.Recurrence)
}

// DayChanged reports whether the start or end moved to another calendar day.
func DayChanged(s EventSchedule) bool {
	return !sameDay(s.Original.Start, s.Current.Start) || !sameDay(s.Original.End, s.Current.End)
}

// Changed reports whether any part of the values differs from the original.
func Changed(s EventSchedule) bool {
	o, c := s.Original, s.Current
	return o.AllDay != c.AllDay ||
		!o.Start.Equal(c.Start) ||
		!o.End.Equal(c.End) ||
		RecurrenceChanged(s)
}

// ScopeRequired reports whether saving must ask which occurrences to touch.
// A changed rule rewrites the whole series, so only an originally recurring
// event with an unchanged rule needs the question.
func ScopeRequired(s EventSchedule) bool {
	return s.Original.Recurrence.IsPresent() && !RecurrenceChanged(s)
}

// EffectiveScope is the scope a save uses given the caller's choice.
func EffectiveScope(s EventSchedule, requested Scope) Scope {
	if !s.Original.Recurrence.IsPresent() {
		return ScopeThis
	}
	if RecurrenceChanged(s) {
		return ScopeAll
	}
	return requested
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
