package event

import (
	"testing"
	"time"

	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstances_ExpandsInsideWindow(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	rec := schedule.Recurrence{Frequency: schedule.FrequencyDaily, Limit: schedule.LimitForever}
	ev := New("daily", false, start, start.Add(30*time.Minute), mo.Some(rec))
	ev.Summary = "Standup"

	window := schedule.Range{Start: start.AddDate(0, 0, 2), End: start.AddDate(0, 0, 4)}
	instances, err := ev.Instances(window, 10)
	require.NoError(t, err)
	require.Len(t, instances, 2)

	assert.True(t, instances[0].Start().Equal(start.AddDate(0, 0, 2)))
	assert.True(t, instances[1].End().Equal(start.AddDate(0, 0, 3).Add(30*time.Minute)))
	assert.Equal(t, "Standup", instances[1].Summary)
	assert.True(t, ev.Start().Equal(start))
}

func TestInstances_SingleEvent(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	ev := New("once", false, start, start, mo.None[schedule.Recurrence]())

	inside, err := ev.Instances(schedule.Range{Start: start.Add(-time.Hour), End: start.Add(time.Hour)}, 5)
	require.NoError(t, err)
	assert.Len(t, inside, 1)

	outside, err := ev.Instances(schedule.Range{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)}, 5)
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestInstances_SeriesFromYearsAgo(t *testing.T) {
	start := time.Date(2022, 1, 3, 9, 0, 0, 0, time.UTC)
	rec := schedule.Recurrence{Frequency: schedule.FrequencyDaily, Limit: schedule.LimitForever}
	ev := New("old", false, start, start.Add(30*time.Minute), mo.Some(rec))

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	instances, err := ev.Instances(schedule.Range{Start: day, End: day.AddDate(0, 0, 1)}, 10)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	want := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	assert.True(t, instances[0].Start().Equal(want))
	assert.True(t, instances[0].RecurrenceID.Equal(want))
	assert.True(t, ev.RecurrenceID.IsZero())
}

func TestInstances_RespectsLimit(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	rec := schedule.Recurrence{Frequency: schedule.FrequencyDaily, Limit: schedule.LimitForever}
	ev := New("daily", false, start, start.Add(time.Hour), mo.Some(rec))

	instances, err := ev.Instances(schedule.Range{Start: start, End: start.AddDate(0, 0, 10)}, 3)
	require.NoError(t, err)
	assert.Len(t, instances, 3)
}
