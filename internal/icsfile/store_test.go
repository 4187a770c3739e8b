package icsfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/icalconv"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func createEvent(t *testing.T, store *Store, calendar string, start time.Time, rec mo.Option[schedule.Recurrence]) string {
	t.Helper()
	ev := event.New("", false, start, start.Add(time.Hour), rec)
	ev.Summary = "Review"
	ref, err := store.Create(context.Background(), calendar, ev)
	require.NoError(t, err)
	return ref
}

func TestCreateLoadSave(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	ref := createEvent(t, store, "work", start, mo.None[schedule.Recurrence]())
	assert.True(t, strings.HasPrefix(ref, "work/"))
	assert.FileExists(t, filepath.Join(store.root, ref+".ics"))

	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, loaded.Href)
	assert.Equal(t, "Review", loaded.Summary)
	assert.True(t, loaded.Start().Equal(start))

	s := schedule.FromEvent(loaded, schedule.TimeFormat24h)
	s = schedule.SetAllDay(s, true)
	schedule.ApplyToEvent(s, loaded)
	require.NoError(t, store.Save(ctx, loaded, schedule.ScopeThis))

	reloaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.True(t, reloaded.AllDay())
	assert.Equal(t, "Review", reloaded.Summary)
}

func TestSave_RecurringNeedsAllScope(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	weekly := mo.Some(schedule.Recurrence{Frequency: schedule.FrequencyWeekly, Limit: schedule.LimitForever})

	ref := createEvent(t, store, "work", start, weekly)
	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(ctx, loaded, schedule.ScopeThisAndFuture), icalconv.ErrScopeUnsupported)
	assert.NoError(t, store.Save(ctx, loaded, schedule.ScopeAll))
}

func TestLoad_Missing(t *testing.T) {
	store := newStore(t)

	_, err := store.Load(context.Background(), "work/nope")
	assert.ErrorIs(t, err, ErrEventNotFound)

	for _, bad := range []string{"work", "../x", "work/../../etc", "/uid"} {
		_, err := store.Load(context.Background(), bad)
		assert.Error(t, err, bad)
	}
}

func TestListCalendarsAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	daily := mo.Some(schedule.Recurrence{Frequency: schedule.FrequencyDaily, Limit: schedule.LimitForever})

	createEvent(t, store, "work", start, mo.None[schedule.Recurrence]())
	createEvent(t, store, "home", start.AddDate(0, 0, -10), daily)
	createEvent(t, store, "home", start.AddDate(0, 1, 0), mo.None[schedule.Recurrence]())
	require.NoError(t, os.WriteFile(filepath.Join(store.root, "home", "broken.ics"), []byte("garbage"), 0o644))

	calendars, err := store.ListCalendars(ctx)
	require.NoError(t, err)
	require.Len(t, calendars, 2)
	assert.Equal(t, "home", calendars[0].UID)
	assert.Equal(t, "ics", calendars[0].Backend)

	window := schedule.Range{Start: start.Add(-time.Hour), End: start.Add(24 * time.Hour)}
	events, err := store.List(ctx, window)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
