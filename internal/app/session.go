package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/eds-schedule/internal/config"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/rbright/eds-schedule/internal/selector"
	"github.com/rbright/eds-schedule/internal/state"
	"github.com/rbright/eds-schedule/internal/waybar"
	"github.com/samber/mo"
)

const newEventLength = time.Hour

func open(ctx context.Context, cfg config.Runtime, ref string, stdout io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ev, err := store.Load(ctx, ref)
	if err != nil {
		return err
	}

	session := state.Session{
		Backend:  cfg.Backend,
		Ref:      ev.Href,
		Calendar: ev.CalendarUID,
		UID:      ev.UID,
		Summary:  ev.Summary,
		Schedule: schedule.FromEvent(ev, cfg.TimeFormat),
	}
	if err := startSession(cfg, session); err != nil {
		return err
	}
	log.Info("editing event", "ref", session.Ref)
	return writeSession(stdout, session, cfg.PreviewCount)
}

// newEvent starts a session for an event that does not exist yet. It starts
// at the next full hour and lasts one hour.
func newEvent(ctx context.Context, cfg config.Runtime, calendar string, stdout io.Writer) error {
	if calendar == "" {
		picked, err := pickCalendar(ctx, cfg)
		if err != nil {
			return err
		}
		calendar = picked
	}

	at := now().In(time.Local)
	start := time.Date(at.Year(), at.Month(), at.Day(), at.Hour()+1, 0, 0, 0, time.Local)
	values := schedule.Values{Start: start, End: start.Add(newEventLength)}

	session := state.Session{
		Backend:  cfg.Backend,
		Calendar: calendar,
		UID:      uuid.NewString(),
		Schedule: schedule.EventSchedule{Original: values, Current: values, TimeFormat: cfg.TimeFormat},
	}
	if err := startSession(cfg, session); err != nil {
		return err
	}
	log.Info("creating event", "calendar", calendar)
	return writeSession(stdout, session, cfg.PreviewCount)
}

func pickCalendar(ctx context.Context, cfg config.Runtime) (string, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = store.Close()
	}()

	calendars, err := store.ListCalendars(ctx)
	if err != nil {
		return "", err
	}

	preferred := ""
	for _, calendar := range calendars {
		if calendar.Selected && !calendar.ReadOnly {
			preferred = calendar.UID
			break
		}
	}
	return selector.SelectCalendar(ctx, calendars, preferred)
}

// startSession replaces any previous session; unsaved edits in it are lost.
func startSession(cfg config.Runtime, session state.Session) error {
	if previous, err := state.LoadSession(cfg.SessionPath); err == nil && schedule.Changed(previous.Schedule) {
		log.Info("discarding unsaved edits", "ref", previous.Ref)
	}
	session.UpdatedAt = now()
	return state.SaveSession(cfg.SessionPath, session)
}

// edit applies one editing action to the open session.
func edit(cfg config.Runtime, cmd command, stdout io.Writer) error {
	session, err := state.LoadSession(cfg.SessionPath)
	if err != nil {
		return err
	}

	if cmd.name == "title" {
		if !session.IsNew() {
			return errors.New("title can only be set on new events")
		}
		session.Summary = cmd.arg
	} else {
		next, err := applyAction(session.Schedule, cmd)
		if err != nil {
			return err
		}
		session.Schedule = next
	}
	session.UpdatedAt = now()
	if err := state.SaveSession(cfg.SessionPath, session); err != nil {
		return err
	}
	log.Debug("session edited", "action", cmd.name, "value", cmd.arg)
	return writeSession(stdout, session, cfg.PreviewCount)
}

// applyAction validates the argument against the current values and runs
// the matching transition. Recurrence setters panic on misuse, so their
// preconditions are checked here first.
func applyAction(s schedule.EventSchedule, cmd command) (schedule.EventSchedule, error) {
	current := s.Current

	switch cmd.name {
	case "all-day":
		allDay, err := parseOnOff(cmd.arg)
		if err != nil {
			return s, err
		}
		return schedule.SetAllDay(s, allDay), nil

	case "start-date":
		day, err := parseDate(cmd.arg, current.Start.Location())
		if err != nil {
			return s, err
		}
		if current.AllDay {
			return schedule.SetStartDate(s, day), nil
		}
		return schedule.SetStartDate(s, onDay(day, current.Start)), nil

	case "end-date":
		day, err := parseDate(cmd.arg, current.End.Location())
		if err != nil {
			return s, err
		}
		if current.AllDay {
			return schedule.SetEndDate(s, day), nil
		}
		return schedule.SetEndDate(s, onDay(day, current.End)), nil

	case "start", "end":
		if current.AllDay {
			return s, fmt.Errorf("event is all-day: use %s-date or all-day off", cmd.name)
		}
		loc := current.Start.Location()
		if cmd.name == "end" {
			loc = current.End.Location()
		}
		at, err := parseDateTime(cmd.arg, loc)
		if err != nil {
			return s, err
		}
		if cmd.name == "start" {
			return schedule.SetStartDateTime(s, at), nil
		}
		return schedule.SetEndDateTime(s, at), nil

	case "repeat":
		freq, ok := schedule.ParseFrequency(strings.ToLower(cmd.arg))
		if !ok {
			return s, fmt.Errorf("invalid frequency %q (expected none|daily|weekdays|weekly|monthly|yearly)", cmd.arg)
		}
		return schedule.SetRecurFrequency(s, freq), nil

	case "limit":
		limit, ok := schedule.ParseLimitType(strings.ToLower(cmd.arg))
		if !ok {
			return s, fmt.Errorf("invalid limit %q (expected forever|count|until)", cmd.arg)
		}
		if !current.Recurrence.IsPresent() {
			return s, errNotRepeating
		}
		return schedule.SetRecurLimitType(s, limit), nil

	case "count":
		count, err := parseCount(cmd.arg)
		if err != nil {
			return s, err
		}
		if err := requireLimit(current.Recurrence, schedule.LimitCount); err != nil {
			return s, err
		}
		return schedule.SetRecurrenceCount(s, count), nil

	case "until":
		day, err := parseDate(cmd.arg, current.Start.Location())
		if err != nil {
			return s, err
		}
		if err := requireLimit(current.Recurrence, schedule.LimitUntil); err != nil {
			return s, err
		}
		// The named day is included, so the series runs to its last second.
		return schedule.SetRecurrenceUntil(s, day.AddDate(0, 0, 1).Add(-time.Second)), nil

	case "time-format":
		format, ok := schedule.ParseTimeFormat(strings.ToLower(cmd.arg))
		if !ok {
			return s, fmt.Errorf("invalid time format %q (expected 12h|24h)", cmd.arg)
		}
		return schedule.SetTimeFormat(s, format), nil
	}

	return s, fmt.Errorf("unsupported command %q", cmd.name)
}

var errNotRepeating = errors.New("event does not repeat: set repeat first")

func requireLimit(opt mo.Option[schedule.Recurrence], limit schedule.LimitType) error {
	rec, ok := opt.Get()
	if !ok {
		return errNotRepeating
	}
	if rec.Limit != limit {
		return fmt.Errorf("repeat limit is %s: run limit %s first", rec.Limit, limit)
	}
	return nil
}

// save writes the session back to its store and ends it.
func save(ctx context.Context, cfg config.Runtime, scopeArg string, stdout io.Writer) error {
	session, err := state.LoadSession(cfg.SessionPath)
	if err != nil {
		return err
	}
	s := session.Schedule

	requested := schedule.ScopeUnset
	if scopeArg != "" {
		parsed, ok := schedule.ParseScope(strings.ToLower(scopeArg))
		if !ok {
			return fmt.Errorf("invalid scope %q (expected this|future|all)", scopeArg)
		}
		requested = parsed
	}

	if !session.IsNew() && !schedule.Changed(s) {
		if err := state.ClearSession(cfg.SessionPath); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, "No changes to save")
		return nil
	}

	if !session.IsNew() && schedule.ScopeRequired(s) && requested == schedule.ScopeUnset {
		return ErrScopeRequired
	}
	scope := schedule.EffectiveScope(s, requested)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ref := session.Ref
	if session.IsNew() {
		ev := event.New(session.UID, false, time.Time{}, time.Time{}, mo.None[schedule.Recurrence]())
		ev.Summary = session.Summary
		schedule.ApplyToEvent(s, ev)
		ref, err = store.Create(ctx, session.Calendar, ev)
		if err != nil {
			log.Error("create failed", err, "calendar", session.Calendar)
			return err
		}
	} else {
		ev, err := store.Load(ctx, session.Ref)
		if err != nil {
			return err
		}
		if stored := schedule.FromEvent(ev, s.TimeFormat).Current; schedule.Changed(schedule.EventSchedule{Original: s.Original, Current: stored}) {
			log.Info("event changed in the store since it was opened", "ref", session.Ref)
		}
		schedule.ApplyToEvent(s, ev)
		if scope == schedule.ScopeThis || scope == schedule.ScopeThisAndFuture {
			if s.Original.Recurrence.IsPresent() {
				// The session opened the series on its first occurrence.
				ev.RecurrenceID = s.Original.Start
			}
		}
		if err := store.Save(ctx, ev, scope); err != nil {
			log.Error("save failed", err, "ref", session.Ref, "scope", scope)
			return err
		}
	}

	if err := state.ClearSession(cfg.SessionPath); err != nil {
		return err
	}
	log.Info("event saved", "ref", ref, "scope", scope)
	_, _ = fmt.Fprintf(stdout, "Saved %s\n", ref)
	return nil
}

func cancel(cfg config.Runtime, stdout io.Writer) error {
	session, err := state.LoadSession(cfg.SessionPath)
	if err != nil {
		if errors.Is(err, state.ErrNoSession) {
			return nil
		}
		return err
	}
	if err := state.ClearSession(cfg.SessionPath); err != nil {
		return err
	}
	log.Info("edit cancelled", "ref", session.Ref)
	_, _ = fmt.Fprintln(stdout, "Edit cancelled")
	return nil
}

func show(cfg config.Runtime, stdout io.Writer) error {
	session, err := state.LoadSession(cfg.SessionPath)
	if err != nil {
		return err
	}
	return writeSession(stdout, session, cfg.PreviewCount)
}

func buildStatus(cfg config.Runtime) waybar.Output {
	session, err := state.LoadSession(cfg.SessionPath)
	if err != nil {
		if errors.Is(err, state.ErrNoSession) {
			return waybar.Render(nil, now())
		}
		return waybar.RenderError(err.Error())
	}
	return waybar.Render(&session, now())
}

func writeSession(w io.Writer, session state.Session, previewCount int) error {
	s := session.Schedule
	var b strings.Builder

	title := session.Summary
	if strings.TrimSpace(title) == "" {
		title = "Untitled event"
	}
	if session.IsNew() {
		_, _ = fmt.Fprintf(&b, "%s (new, calendar %s)\n", title, session.Calendar)
	} else {
		_, _ = fmt.Fprintf(&b, "%s (%s)\n", title, session.Ref)
	}

	_, _ = fmt.Fprintf(&b, "When:    %s\n", schedule.FormatRange(s.Current, s.TimeFormat))
	_, _ = fmt.Fprintf(&b, "Repeats: %s\n", schedule.DescribeRecurrence(s.Current))

	if schedule.Changed(s) {
		_, _ = fmt.Fprintf(&b, "Was:     %s, %s\n", schedule.FormatRange(s.Original, s.TimeFormat), schedule.DescribeRecurrence(s.Original))
		if schedule.ScopeRequired(s) {
			b.WriteString("Save with: save this | save future | save all\n")
		}
	}

	if s.Current.Recurrence.IsPresent() {
		occurrences, err := schedule.Occurrences(s.Current, s.Current.Start, previewCount)
		if err != nil {
			return err
		}
		b.WriteString("Upcoming:\n")
		for _, occurrence := range occurrences {
			values := schedule.Values{AllDay: s.Current.AllDay, Start: occurrence.Start, End: occurrence.End}
			_, _ = fmt.Fprintf(&b, "  %s\n", schedule.FormatRange(values, s.TimeFormat))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
