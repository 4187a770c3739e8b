// Package icsfile keeps events as one .ics file each, grouped into calendar
// directories: <root>/<calendar>/<uid>.ics.
package icsfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/fsutil"
	"github.com/rbright/eds-schedule/internal/icalconv"
	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
)

const (
	backendName   = "ics"
	fileExtension = ".ics"
	// listScanLimit bounds the occurrences inspected per event when listing.
	listScanLimit = 1
)

var ErrEventNotFound = errors.New("ics event not found")

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("ics directory is not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create ics dir: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Close() error { return nil }

// ListCalendars returns one calendar per directory under the root.
func (s *Store) ListCalendars(ctx context.Context) ([]event.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read ics dir: %w", err)
	}

	calendars := make([]event.Calendar, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		calendars = append(calendars, event.Calendar{
			UID:      entry.Name(),
			Name:     entry.Name(),
			Backend:  backendName,
			Selected: true,
			Enabled:  true,
		})
	}
	return calendars, nil
}

func (s *Store) Load(ctx context.Context, ref string) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, calendarUID, err := s.pathFor(ref)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, ref)
		}
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return decodeFile(calendarUID, ref, string(raw))
}

// Create writes a new file named after the event uid; an empty uid gets a
// fresh UUID.
func (s *Store) Create(ctx context.Context, calendarUID string, ev *event.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(ev.UID) == "" {
		ev.UID = uuid.NewString()
	}

	ref := calendarUID + "/" + ev.UID
	path, _, err := s.pathFor(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("event %s already exists", ref)
	}

	ev.Raw = ""
	if err := writeEvent(path, ev); err != nil {
		return "", err
	}
	ev.CalendarUID = calendarUID
	ev.Href = ref
	log.Debug("ics event created", "ref", ref)
	return ref, nil
}

func (s *Store) Save(ctx context.Context, ev *event.Event, scope schedule.Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := icalconv.CheckScope(ev, scope); err != nil {
		return err
	}

	path, _, err := s.pathFor(ev.Href)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrEventNotFound, ev.Href)
	}

	if err := writeEvent(path, ev); err != nil {
		return err
	}
	log.Debug("ics event saved", "ref", ev.Href)
	return nil
}

// List returns every stored event with an occurrence in the window.
func (s *Store) List(ctx context.Context, window schedule.Range) ([]*event.Event, error) {
	calendars, err := s.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]*event.Event, 0, 32)
	for _, calendar := range calendars {
		paths, err := filepath.Glob(filepath.Join(s.root, calendar.UID, "*"+fileExtension))
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)

		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ev, err := s.Load(ctx, calendar.UID+"/"+strings.TrimSuffix(filepath.Base(path), fileExtension))
			if err != nil {
				log.Debug("skipping unreadable ics file", "path", path, "err", err)
				continue
			}
			instances, err := ev.Instances(window, listScanLimit)
			if err != nil || len(instances) == 0 {
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// pathFor resolves "<calendar>/<uid>" below the root, refusing anything
// that would escape it.
func (s *Store) pathFor(ref string) (string, string, error) {
	calendarUID, uid, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || calendarUID == "" || uid == "" {
		return "", "", fmt.Errorf("invalid ics reference %q (expected <calendar>/<uid>)", ref)
	}
	if strings.ContainsAny(uid, `/\`) || calendarUID == "." || calendarUID == ".." || uid == "." || uid == ".." {
		return "", "", fmt.Errorf("invalid ics reference %q", ref)
	}
	return filepath.Join(s.root, calendarUID, uid+fileExtension), calendarUID, nil
}

func decodeFile(calendarUID, ref, raw string) (*event.Event, error) {
	cal, err := icalconv.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	ev, err := icalconv.FromCalendar(cal, calendarUID, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	ev.Href = ref
	return ev, nil
}

func writeEvent(path string, ev *event.Event) error {
	cal, err := icalconv.ToCalendar(ev)
	if err != nil {
		return err
	}
	encoded, err := icalconv.Encode(cal)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomically(path, []byte(encoded)); err != nil {
		return err
	}
	ev.Raw = encoded
	return nil
}
