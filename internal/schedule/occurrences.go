package schedule

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Occurrences returns up to limit occurrences of v that end after the given
// instant. A value without recurrence has at most one occurrence.
func Occurrences(v Values, after time.Time, limit int) ([]Range, error) {
	if limit <= 0 {
		return nil, nil
	}

	duration := v.End.Sub(v.Start)
	first := Range{Start: v.Start, End: v.End}

	if !v.Recurrence.IsPresent() {
		if first.End.After(after) || first.Start.Equal(after) {
			return []Range{first}, nil
		}
		return nil, nil
	}

	rule, err := seriesRule(v)
	if err != nil {
		return nil, err
	}

	// An occurrence ending after the instant started after instant-duration;
	// a zero-length one may start exactly on it.
	results := make([]Range, 0, limit)
	start := rule.After(after.Add(-duration), duration == 0)
	for !start.IsZero() && len(results) < limit {
		results = append(results, Range{Start: start, End: start.Add(duration)})
		start = rule.After(start, false)
	}
	return results, nil
}

// OccurrencesIn returns the occurrences of v that overlap window, plus
// zero-length occurrences starting inside it.
func OccurrencesIn(v Values, window Range) ([]Range, error) {
	duration := v.End.Sub(v.Start)

	var starts []time.Time
	if v.Recurrence.IsPresent() {
		rule, err := seriesRule(v)
		if err != nil {
			return nil, err
		}
		starts = rule.Between(window.Start.Add(-duration), window.End, true)
	} else {
		starts = []time.Time{v.Start}
	}

	results := make([]Range, 0, len(starts))
	for _, start := range starts {
		occurrence := Range{Start: start, End: start.Add(duration)}
		if occurrence.Overlaps(window) || instantIn(occurrence, window) {
			results = append(results, occurrence)
		}
	}
	return results, nil
}

func instantIn(r, window Range) bool {
	return r.Start.Equal(r.End) && !r.Start.Before(window.Start) && r.Start.Before(window.End)
}

// seriesRule builds the rrule for a recurring v. An all-day series runs
// through the whole of its until day in the start's zone.
func seriesRule(v Values) (*rrule.RRule, error) {
	rec := v.Recurrence.MustGet()

	value, err := rec.RRule()
	if err != nil {
		return nil, err
	}

	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = v.Start
	if v.AllDay && rec.Limit == LimitUntil && !rec.Until.IsZero() {
		y, m, d := rec.Until.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, v.Start.Location())
	}

	return rrule.NewRRule(*opt)
}
