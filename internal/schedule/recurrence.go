package schedule

import (
	"time"

	"github.com/samber/mo"
)

// Frequency is how often a recurring event repeats.
type Frequency int

const (
	FrequencyNone Frequency = iota
	FrequencyDaily
	FrequencyWeekdays
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
	FrequencyOther
)

var frequencyNames = map[Frequency]string{
	FrequencyNone:     "none",
	FrequencyDaily:    "daily",
	FrequencyWeekdays: "weekdays",
	FrequencyWeekly:   "weekly",
	FrequencyMonthly:  "monthly",
	FrequencyYearly:   "yearly",
	FrequencyOther:    "other",
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFrequency accepts the lowercase names returned by Frequency.String.
// "other" is not accepted: it only ever comes from an existing rule.
func ParseFrequency(value string) (Frequency, bool) {
	for freq, name := range frequencyNames {
		if freq == FrequencyOther {
			continue
		}
		if name == value {
			return freq, true
		}
	}
	return FrequencyNone, false
}

// LimitType is how a repeating series ends.
type LimitType int

const (
	LimitForever LimitType = iota
	LimitCount
	LimitUntil
)

func (l LimitType) String() string {
	switch l {
	case LimitForever:
		return "forever"
	case LimitCount:
		return "count"
	case LimitUntil:
		return "until"
	default:
		return "unknown"
	}
}

func ParseLimitType(value string) (LimitType, bool) {
	switch value {
	case "forever":
		return LimitForever, true
	case "count":
		return LimitCount, true
	case "until":
		return LimitUntil, true
	default:
		return LimitForever, false
	}
}

// DefaultCount is the repeat count a series gets when it switches to a
// count limit.
const DefaultCount = 2

// Recurrence is an immutable description of a repeating series. Count is
// meaningful only for LimitCount and Until only for LimitUntil.
//
// A Recurrence with FrequencyNone never exists on its own: "does not repeat"
// is an absent mo.Option[Recurrence].
type Recurrence struct {
	Frequency Frequency
	Limit     LimitType
	Count     uint
	Until     time.Time

	// rule keeps the source RRULE of a FrequencyOther series, or of a
	// weekly series pinned to a weekday, so that the parts the model cannot
	// express survive an edit.
	rule string
}

// HasRule reports whether r carries source RRULE parts beyond its fields.
func (r Recurrence) HasRule() bool {
	return r.rule != ""
}

// Equal compares frequency, limit type and the active limit value.
func (r Recurrence) Equal(other Recurrence) bool {
	if r.Frequency != other.Frequency || r.Limit != other.Limit {
		return false
	}
	switch r.Limit {
	case LimitCount:
		return r.Count == other.Count
	case LimitUntil:
		return r.Until.Equal(other.Until)
	default:
		return true
	}
}

// RecurrenceEqual treats two absent recurrences as equal.
func RecurrenceEqual(a, b mo.Option[Recurrence]) bool {
	left, leftOK := a.Get()
	right, rightOK := b.Get()
	if leftOK != rightOK {
		return false
	}
	if !leftOK {
		return true
	}
	return left.Equal(right)
}

// ChangeFrequency returns the recurrence old would have with freq.
// FrequencyNone always yields an absent recurrence.
func ChangeFrequency(old mo.Option[Recurrence], freq Frequency) mo.Option[Recurrence] {
	if freq == FrequencyNone {
		return mo.None[Recurrence]()
	}

	next := old.OrEmpty()
	if freq != FrequencyOther && freq != next.Frequency {
		next.rule = ""
	}
	next.Frequency = freq
	return mo.Some(next)
}

// ChangeLimitType switches the limit of an existing series and resets its
// value: no value for LimitForever, DefaultCount for LimitCount and
// referenceStart for LimitUntil.
//
// It panics when old is absent or does not repeat, or when an until limit is
// requested without a reference start.
func ChangeLimitType(old mo.Option[Recurrence], limit LimitType, referenceStart time.Time) Recurrence {
	current, ok := old.Get()
	if !ok || current.Frequency == FrequencyNone {
		panic("schedule: limit type changed on an event that does not repeat")
	}
	if current.Limit == limit {
		return current
	}

	current.Limit = limit
	current.Count = 0
	current.Until = time.Time{}

	switch limit {
	case LimitCount:
		current.Count = DefaultCount
	case LimitUntil:
		if referenceStart.IsZero() {
			panic("schedule: until limit requires a reference start")
		}
		current.Until = referenceStart
	}
	return current
}
