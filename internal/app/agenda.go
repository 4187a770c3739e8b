package app

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rbright/eds-schedule/internal/config"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/schedule"
)

// instancesPerEvent caps how far one recurring event is expanded into an
// agenda window.
const instancesPerEvent = 64

func listCalendars(ctx context.Context, cfg config.Runtime, stdout io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	calendars, err := store.ListCalendars(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(calendars, func(i, j int) bool {
		if calendars[i].AccountName != calendars[j].AccountName {
			return calendars[i].AccountName < calendars[j].AccountName
		}
		return calendars[i].Name < calendars[j].Name
	})

	var b strings.Builder
	for _, calendar := range calendars {
		flags := make([]string, 0, 2)
		if calendar.ReadOnly {
			flags = append(flags, "read-only")
		}
		if !calendar.Enabled {
			flags = append(flags, "disabled")
		}
		line := fmt.Sprintf("%s\t%s", calendar.UID, calendar.Name)
		if calendar.AccountName != "" {
			line += " (" + calendar.AccountName + ")"
		}
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		b.WriteString(line + "\n")
	}

	if _, err := io.WriteString(stdout, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// loadAgenda returns every occurrence in the store between the start of
// today and the configured horizon, in display order.
func loadAgenda(ctx context.Context, cfg config.Runtime, at time.Time) ([]*event.Event, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = store.Close()
	}()

	start := midnight(at.In(time.Local))
	window := schedule.Range{Start: start, End: start.AddDate(0, 0, cfg.AgendaDays)}

	events, err := store.List(ctx, window)
	if err != nil {
		return nil, err
	}

	instances := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		expanded, err := ev.Instances(window, instancesPerEvent)
		if err != nil {
			continue
		}
		instances = append(instances, expanded...)
	}

	sort.SliceStable(instances, func(i, j int) bool {
		return event.Compare(instances[i], instances[j]) < 0
	})
	return instances, nil
}

func agenda(ctx context.Context, cfg config.Runtime, stdout io.Writer) error {
	at := now()
	instances, err := loadAgenda(ctx, cfg, at)
	if err != nil {
		return err
	}

	format := cfg.TimeFormat
	next := nextInstance(instances, at)

	var b strings.Builder
	if len(instances) == 0 {
		_, _ = fmt.Fprintf(&b, "No events in the next %d days\n", cfg.AgendaDays)
	}
	for _, ev := range instances {
		marker := " "
		if ev == next {
			marker = ">"
		}
		values := schedule.Values{AllDay: ev.AllDay(), Start: ev.Start(), End: ev.End()}
		line := fmt.Sprintf("%s %s  %s", marker, schedule.FormatRange(values, format), fallback(ev.Summary, "Untitled event"))
		if ev.IsMultiday() {
			line += " (multi-day)"
		}
		if ev.Recurrence().IsPresent() {
			line += " ↻"
		}
		b.WriteString(line + "\n")
	}

	if _, err := io.WriteString(stdout, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// nextInstance picks the instance closest to at, preferring ones that have
// not ended yet.
func nextInstance(instances []*event.Event, at time.Time) *event.Event {
	var next *event.Event
	for _, ev := range instances {
		if !ev.End().After(at) {
			continue
		}
		if next == nil || event.CompareWithCurrent(ev, next, at) < 0 {
			next = ev
		}
	}
	return next
}

// joinNext opens the meeting link of the nearest upcoming event that has one.
func joinNext(ctx context.Context, cfg config.Runtime) error {
	at := now()
	instances, err := loadAgenda(ctx, cfg, at)
	if err != nil {
		return err
	}

	candidates := make([]*event.Event, 0, len(instances))
	for _, ev := range instances {
		if joinURL, _, _ := ev.Links(); joinURL != "" && ev.End().After(at) {
			candidates = append(candidates, ev)
		}
	}
	next := nextInstance(candidates, at)
	if next == nil {
		return nil
	}

	joinURL, _, _ := next.Links()
	return openURL(ctx, joinURL)
}

func openURL(ctx context.Context, url string) error {
	if _, err := exec.LookPath("xdg-open"); err != nil {
		return fmt.Errorf("xdg-open not found")
	}

	cmd := exec.CommandContext(ctx, "xdg-open", url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	return nil
}

func fallback(value, fallbackValue string) string {
	if strings.TrimSpace(value) == "" {
		return fallbackValue
	}
	return value
}
