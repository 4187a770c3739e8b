package schedule

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyForever() mo.Option[Recurrence] {
	return mo.Some(Recurrence{Frequency: FrequencyWeekly, Limit: LimitForever})
}

func TestChangeFrequency(t *testing.T) {
	t.Parallel()

	assert.False(t, ChangeFrequency(weeklyForever(), FrequencyNone).IsPresent())
	assert.False(t, ChangeFrequency(mo.None[Recurrence](), FrequencyNone).IsPresent())

	fresh := ChangeFrequency(mo.None[Recurrence](), FrequencyDaily).MustGet()
	assert.Equal(t, FrequencyDaily, fresh.Frequency)
	assert.Equal(t, LimitForever, fresh.Limit)

	counted := mo.Some(Recurrence{Frequency: FrequencyWeekly, Limit: LimitCount, Count: 9})
	changed := ChangeFrequency(counted, FrequencyMonthly).MustGet()
	assert.Equal(t, FrequencyMonthly, changed.Frequency)
	assert.Equal(t, LimitCount, changed.Limit)
	assert.Equal(t, uint(9), changed.Count)
	assert.Equal(t, FrequencyWeekly, counted.MustGet().Frequency)
}

func TestChangeLimitType(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)

	counted := ChangeLimitType(weeklyForever(), LimitCount, date)
	assert.Equal(t, LimitCount, counted.Limit)
	assert.Equal(t, uint(2), counted.Count)

	until := ChangeLimitType(weeklyForever(), LimitUntil, date)
	assert.Equal(t, LimitUntil, until.Limit)
	assert.True(t, until.Until.Equal(date))

	same := ChangeLimitType(mo.Some(counted), LimitCount, date)
	assert.Equal(t, counted, same)

	forever := ChangeLimitType(mo.Some(until), LimitForever, date)
	assert.Equal(t, LimitForever, forever.Limit)
	assert.True(t, forever.Until.IsZero())
}

func TestChangeLimitType_Panics(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)

	assert.Panics(t, func() { ChangeLimitType(mo.None[Recurrence](), LimitCount, date) })
	assert.Panics(t, func() { ChangeLimitType(mo.Some(Recurrence{}), LimitCount, date) })
	assert.Panics(t, func() { ChangeLimitType(weeklyForever(), LimitUntil, time.Time{}) })
}

func TestRecurrenceEqual(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)
	sameInstant := date.In(time.FixedZone("", -6*3600))

	tests := []struct {
		name string
		a, b mo.Option[Recurrence]
		want bool
	}{
		{name: "both absent", a: mo.None[Recurrence](), b: mo.None[Recurrence](), want: true},
		{name: "one absent", a: weeklyForever(), b: mo.None[Recurrence](), want: false},
		{name: "forever ignores stale values", a: weeklyForever(), b: mo.Some(Recurrence{Frequency: FrequencyWeekly, Count: 4}), want: true},
		{name: "frequency differs", a: weeklyForever(), b: mo.Some(Recurrence{Frequency: FrequencyDaily}), want: false},
		{
			name: "count differs",
			a:    mo.Some(Recurrence{Frequency: FrequencyDaily, Limit: LimitCount, Count: 2}),
			b:    mo.Some(Recurrence{Frequency: FrequencyDaily, Limit: LimitCount, Count: 3}),
			want: false,
		},
		{
			name: "until compares instants",
			a:    mo.Some(Recurrence{Frequency: FrequencyDaily, Limit: LimitUntil, Until: date}),
			b:    mo.Some(Recurrence{Frequency: FrequencyDaily, Limit: LimitUntil, Until: sameInstant}),
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, RecurrenceEqual(tc.a, tc.b))
		})
	}
}

func TestParseRecurrence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rule      string
		present   bool
		frequency Frequency
		limit     LimitType
		count     uint
	}{
		{rule: "", present: false},
		{rule: "FREQ=DAILY", present: true, frequency: FrequencyDaily, limit: LimitForever},
		{rule: "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR;COUNT=5", present: true, frequency: FrequencyWeekdays, limit: LimitCount, count: 5},
		{rule: "FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR", present: true, frequency: FrequencyWeekdays, limit: LimitForever},
		{rule: "FREQ=WEEKLY;BYDAY=TU", present: true, frequency: FrequencyWeekly, limit: LimitForever},
		{rule: "FREQ=MONTHLY;UNTIL=20250411T000000Z", present: true, frequency: FrequencyMonthly, limit: LimitUntil},
		{rule: "FREQ=YEARLY;COUNT=3", present: true, frequency: FrequencyYearly, limit: LimitCount, count: 3},
		{rule: "FREQ=WEEKLY;INTERVAL=2", present: true, frequency: FrequencyOther, limit: LimitForever},
		{rule: "FREQ=MONTHLY;BYMONTHDAY=15", present: true, frequency: FrequencyOther, limit: LimitForever},
		{rule: "FREQ=WEEKLY;BYDAY=MO,WE", present: true, frequency: FrequencyOther, limit: LimitForever},
		{rule: "FREQ=HOURLY", present: true, frequency: FrequencyOther, limit: LimitForever},
	}

	for _, tc := range tests {
		t.Run(tc.rule, func(t *testing.T) {
			t.Parallel()

			parsed, err := ParseRecurrence(tc.rule)
			require.NoError(t, err)
			require.Equal(t, tc.present, parsed.IsPresent())
			if !tc.present {
				return
			}
			rec := parsed.MustGet()
			assert.Equal(t, tc.frequency, rec.Frequency)
			assert.Equal(t, tc.limit, rec.Limit)
			assert.Equal(t, tc.count, rec.Count)
		})
	}
}

func TestParseRecurrence_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseRecurrence("FREQ=SOMETIMES")
	assert.Error(t, err)
}

func TestRecurrenceRRule_RoundTrip(t *testing.T) {
	t.Parallel()

	until := time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)
	cases := []Recurrence{
		{Frequency: FrequencyDaily, Limit: LimitForever},
		{Frequency: FrequencyWeekdays, Limit: LimitCount, Count: 10},
		{Frequency: FrequencyWeekly, Limit: LimitUntil, Until: until},
		{Frequency: FrequencyMonthly, Limit: LimitCount, Count: 2},
		{Frequency: FrequencyYearly, Limit: LimitForever},
	}

	for _, rec := range cases {
		t.Run(rec.Frequency.String(), func(t *testing.T) {
			t.Parallel()

			value, err := rec.RRule()
			require.NoError(t, err)

			parsed, err := ParseRecurrence(value)
			require.NoError(t, err)
			assert.True(t, rec.Equal(parsed.MustGet()), "rule %q parsed as %+v", value, parsed.MustGet())
		})
	}
}

func TestRecurrenceRRule_OtherKeepsRule(t *testing.T) {
	t.Parallel()

	parsed, err := ParseRecurrence("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=4")
	require.NoError(t, err)

	forever := ChangeLimitType(parsed, LimitForever, time.Time{})
	value, err := forever.RRule()
	require.NoError(t, err)
	assert.Contains(t, value, "INTERVAL=2")
	assert.NotContains(t, value, "COUNT")

	daily := ChangeFrequency(mo.Some(forever), FrequencyDaily).MustGet()
	value, err = daily.RRule()
	require.NoError(t, err)
	assert.NotContains(t, value, "INTERVAL")
}

func TestRecurrenceRRule_NoneHasNoRule(t *testing.T) {
	t.Parallel()

	_, err := Recurrence{}.RRule()
	assert.Error(t, err)
}

func TestRecurrenceRRule_WeeklyKeepsWeekday(t *testing.T) {
	t.Parallel()

	parsed, err := ParseRecurrence("FREQ=WEEKLY;BYDAY=TU")
	require.NoError(t, err)
	rec := parsed.MustGet()
	assert.Equal(t, FrequencyWeekly, rec.Frequency)
	assert.True(t, rec.HasRule())

	counted := ChangeLimitType(parsed, LimitCount, time.Time{})
	value, err := counted.RRule()
	require.NoError(t, err)
	assert.Contains(t, value, "BYDAY=TU")
	assert.Contains(t, value, "COUNT=2")

	// Tuesdays stay Tuesdays even when the series starts on a Monday.
	monday := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	got, err := Occurrences(Values{Start: monday, End: monday.Add(time.Hour), Recurrence: mo.Some(counted)}, monday, 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, occurrence := range got {
		assert.Equal(t, time.Tuesday, occurrence.Start.Weekday())
	}

	daily := ChangeFrequency(parsed, FrequencyDaily).MustGet()
	assert.False(t, daily.HasRule())
}

func TestRecurrenceRRuleFor_AllDayUntilIsDate(t *testing.T) {
	t.Parallel()

	until := time.Date(2025, 4, 11, 23, 59, 59, 0, time.FixedZone("test", -6*3600))
	rec := Recurrence{Frequency: FrequencyDaily, Limit: LimitUntil, Until: until}

	timed, err := rec.RRuleFor(false)
	require.NoError(t, err)
	assert.Contains(t, timed, "UNTIL=20250412T055959Z")

	allDay, err := rec.RRuleFor(true)
	require.NoError(t, err)
	assert.Contains(t, allDay, "UNTIL=20250411")
	assert.NotContains(t, allDay, "UNTIL=20250411T")

	parsed, err := ParseRecurrence(allDay)
	require.NoError(t, err)
	assert.Equal(t, LimitUntil, parsed.MustGet().Limit)
}
