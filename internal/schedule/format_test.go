package schedule

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
)

func TestHumanizeDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		out  string
	}{
		{name: "past", in: -time.Minute, out: "now"},
		{name: "seconds_round_up", in: 20 * time.Second, out: "1m"},
		{name: "hours_minutes", in: 4*time.Hour + 24*time.Minute, out: "4h 24m"},
		{name: "days_hours_minutes", in: 2*24*time.Hour + 3*time.Hour + 5*time.Minute, out: "2d 3h 5m"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.out, HumanizeDuration(tc.in))
		})
	}
}

func TestFormatRange(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		values Values
		format TimeFormat
		want   string
	}{
		{
			name:   "single all-day",
			values: Values{AllDay: true, Start: day, End: day.AddDate(0, 0, 1)},
			want:   "Mon Mar 3 2025 (all day)",
		},
		{
			name:   "multi all-day shows last day",
			values: Values{AllDay: true, Start: day, End: day.AddDate(0, 0, 2)},
			want:   "Mon Mar 3 2025 – Tue Mar 4 2025 (all day)",
		},
		{
			name:   "timed 24h",
			values: Values{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
			want:   "Mon Mar 3 2025 10:00 – 11:00",
		},
		{
			name:   "timed 12h across days",
			values: Values{Start: day.Add(22 * time.Hour), End: day.Add(25 * time.Hour)},
			format: TimeFormat12h,
			want:   "Mon Mar 3 2025 10:00 PM – Tue Mar 4 2025 1:00 AM",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatRange(tc.values, tc.format))
		})
	}
}

func TestDescribeRecurrence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "does not repeat", DescribeRecurrence(Values{}))
	assert.Equal(t, "weekly, 3 times", DescribeRecurrence(Values{
		Recurrence: mo.Some(Recurrence{Frequency: FrequencyWeekly, Limit: LimitCount, Count: 3}),
	}))
	assert.Equal(t, "daily, forever", DescribeRecurrence(Values{
		Recurrence: mo.Some(Recurrence{Frequency: FrequencyDaily}),
	}))
}
