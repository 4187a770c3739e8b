package schedule

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "Mon Jan 2 2006"

// FormatTime renders the clock part of t in the given style.
func FormatTime(t time.Time, format TimeFormat) string {
	if format == TimeFormat12h {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}

// FormatRange renders the current values the way the editor summary shows
// them. All-day ranges show the inclusive last day.
func FormatRange(v Values, format TimeFormat) string {
	if v.AllDay {
		first := v.Start.Format(dateLayout)
		last := v.End.AddDate(0, 0, -1)
		if !last.After(v.Start) {
			return first + " (all day)"
		}
		return first + " – " + last.Format(dateLayout) + " (all day)"
	}

	start := v.Start.Format(dateLayout) + " " + FormatTime(v.Start, format)
	if sameDay(v.Start, v.End) && v.Start.Location().String() == v.End.Location().String() {
		return start + " – " + FormatTime(v.End, format)
	}
	return start + " – " + v.End.Format(dateLayout) + " " + FormatTime(v.End, format)
}

// DescribeRecurrence is a short human label such as "weekly, 3 times".
func DescribeRecurrence(v Values) string {
	rec, ok := v.Recurrence.Get()
	if !ok {
		return "does not repeat"
	}

	switch rec.Limit {
	case LimitCount:
		return rec.Frequency.String() + ", " + strconv.FormatUint(uint64(rec.Count), 10) + " times"
	case LimitUntil:
		return rec.Frequency.String() + ", until " + rec.Until.Format(dateLayout)
	default:
		return rec.Frequency.String() + ", forever"
	}
}

// HumanizeDuration renders d as "2d 3h 5m", rounding up to the minute.
func HumanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	minutes := int(math.Ceil(d.Minutes()))
	days := minutes / (24 * 60)
	remaining := minutes % (24 * 60)
	hours := remaining / 60
	mins := remaining % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.Itoa(days)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if mins > 0 {
		parts = append(parts, strconv.Itoa(mins)+"m")
	}
	if len(parts) == 0 {
		parts = append(parts, "0m")
	}
	return strings.Join(parts, " ")
}
