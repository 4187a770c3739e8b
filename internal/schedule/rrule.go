package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// ParseRecurrence classifies an RFC 5545 RRULE value. An empty rule means
// the event does not repeat.
func ParseRecurrence(value string) (mo.Option[Recurrence], error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "RRULE:"))
	if trimmed == "" {
		return mo.None[Recurrence](), nil
	}

	opt, err := rrule.StrToROption(trimmed)
	if err != nil {
		return mo.None[Recurrence](), fmt.Errorf("parse rrule %q: %w", trimmed, err)
	}

	rec := Recurrence{Frequency: classify(opt)}
	if rec.Frequency == FrequencyOther || (rec.Frequency == FrequencyWeekly && len(opt.Byweekday) > 0) {
		rec.rule = trimmed
	}

	switch {
	case opt.Count > 0:
		rec.Limit = LimitCount
		rec.Count = uint(opt.Count)
	case !opt.Until.IsZero():
		rec.Limit = LimitUntil
		rec.Until = opt.Until
	default:
		rec.Limit = LimitForever
	}

	return mo.Some(rec), nil
}

func classify(opt *rrule.ROption) Frequency {
	if opt.Interval > 1 || hasExtraParts(opt) {
		return FrequencyOther
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) == 0 {
			return FrequencyDaily
		}
		if isWeekdays(opt.Byweekday) {
			return FrequencyWeekdays
		}
	case rrule.WEEKLY:
		if len(opt.Byweekday) <= 1 {
			return FrequencyWeekly
		}
		if isWeekdays(opt.Byweekday) {
			return FrequencyWeekdays
		}
	case rrule.MONTHLY:
		if len(opt.Byweekday) == 0 {
			return FrequencyMonthly
		}
	case rrule.YEARLY:
		if len(opt.Byweekday) == 0 {
			return FrequencyYearly
		}
	}
	return FrequencyOther
}

func hasExtraParts(opt *rrule.ROption) bool {
	return len(opt.Bysetpos) > 0 ||
		len(opt.Bymonth) > 0 ||
		len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 ||
		len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 ||
		len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0
}

func isWeekdays(days []rrule.Weekday) bool {
	if len(days) != len(weekdays) {
		return false
	}
	seen := make(map[int]bool, len(days))
	for _, day := range days {
		if day.N() != 0 {
			return false
		}
		seen[day.Day()] = true
	}
	for _, day := range weekdays {
		if !seen[day.Day()] {
			return false
		}
	}
	return true
}

// RRule renders the recurrence as an RRULE value without the "RRULE:" prefix.
func (r Recurrence) RRule() (string, error) {
	var opt rrule.ROption

	switch r.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekdays:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = append([]rrule.Weekday(nil), weekdays...)
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		if strings.TrimSpace(r.rule) != "" {
			parsed, err := rrule.StrToROption(r.rule)
			if err != nil {
				return "", fmt.Errorf("parse preserved rrule: %w", err)
			}
			opt.Byweekday = parsed.Byweekday
		}
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	case FrequencyYearly:
		opt.Freq = rrule.YEARLY
	case FrequencyOther:
		if strings.TrimSpace(r.rule) == "" {
			return "", fmt.Errorf("recurrence has no rule to preserve")
		}
		parsed, err := rrule.StrToROption(r.rule)
		if err != nil {
			return "", fmt.Errorf("parse preserved rrule: %w", err)
		}
		opt = *parsed
		opt.Count = 0
		opt.Until = time.Time{}
	default:
		return "", fmt.Errorf("recurrence frequency %s has no rule", r.Frequency)
	}

	switch r.Limit {
	case LimitCount:
		opt.Count = int(r.Count)
	case LimitUntil:
		opt.Until = r.Until
	}

	return opt.RRuleString(), nil
}

// RRuleFor renders the rule for a series that is all-day or not. All-day
// series carry UNTIL as a DATE naming the last included day.
func (r Recurrence) RRuleFor(allDay bool) (string, error) {
	if !allDay || r.Limit != LimitUntil {
		return r.RRule()
	}

	open := r
	open.Limit = LimitForever
	value, err := open.RRule()
	if err != nil {
		return "", err
	}
	return value + ";UNTIL=" + r.Until.Format(untilDateLayout), nil
}

const untilDateLayout = "20060102"
