// Package caldav stores events on a CalDAV server. References are object
// paths such as /calendars/me/work/<uid>.ics.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/icalconv"
	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
)

const backendName = "caldav"

// objectClient is the part of *caldav.Client the store needs.
type objectClient interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	GetCalendarObject(ctx context.Context, path string) (*caldav.CalendarObject, error)
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
}

type Options struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

type Store struct {
	client objectClient
}

func New(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("caldav url is not configured")
	}

	var httpClient webdav.HTTPClient = &http.Client{Timeout: opts.Timeout}
	if opts.Username != "" || opts.Password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, opts.Username, opts.Password)
	}

	client, err := caldav.NewClient(httpClient, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return nil }

// ListCalendars discovers the calendars of the authenticated principal.
func (s *Store) ListCalendars(ctx context.Context) ([]event.Calendar, error) {
	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	found, err := s.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	calendars := make([]event.Calendar, 0, len(found))
	for _, cal := range found {
		if !supportsEvents(cal) {
			continue
		}
		name := strings.TrimSpace(cal.Name)
		if name == "" {
			name = path.Base(strings.TrimSuffix(cal.Path, "/"))
		}
		calendars = append(calendars, event.Calendar{
			UID:      cal.Path,
			Name:     name,
			Backend:  backendName,
			Selected: true,
			Enabled:  true,
		})
	}
	return calendars, nil
}

func (s *Store) Load(ctx context.Context, ref string) (*event.Event, error) {
	obj, err := s.client.GetCalendarObject(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return decodeObject(obj)
}

// Create puts a new object named after the event uid into calendarPath.
func (s *Store) Create(ctx context.Context, calendarPath string, ev *event.Event) (string, error) {
	if strings.TrimSpace(calendarPath) == "" {
		return "", fmt.Errorf("calendar path not specified")
	}
	if strings.TrimSpace(ev.UID) == "" {
		ev.UID = uuid.NewString()
	}

	objectPath := calendarPath
	if !strings.HasSuffix(objectPath, "/") {
		objectPath += "/"
	}
	objectPath += ev.UID + ".ics"

	ev.Raw = ""
	if err := s.put(ctx, objectPath, ev); err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	ev.CalendarUID = calendarPath
	ev.Href = objectPath
	log.Debug("caldav event created", "ref", objectPath)
	return objectPath, nil
}

// Save replaces the whole object; PUT has no notion of a partial series
// edit, so narrower scopes on recurring events are refused.
func (s *Store) Save(ctx context.Context, ev *event.Event, scope schedule.Scope) error {
	if err := icalconv.CheckScope(ev, scope); err != nil {
		return err
	}
	if strings.TrimSpace(ev.Href) == "" {
		return fmt.Errorf("event %s has no object path", ev.UID)
	}
	if err := s.put(ctx, ev.Href, ev); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	log.Debug("caldav event saved", "ref", ev.Href)
	return nil
}

// List queries every calendar for events in the window.
func (s *Store) List(ctx context.Context, window schedule.Range) ([]*event.Event, error) {
	calendars, err := s.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{
					Name:  ical.CompEvent,
					Start: window.Start,
					End:   window.End,
				},
			},
		},
	}

	events := make([]*event.Event, 0, 32)
	for _, calendar := range calendars {
		objects, err := s.client.QueryCalendar(ctx, calendar.UID, query)
		if err != nil {
			return nil, fmt.Errorf("query calendar %s: %w", calendar.Name, err)
		}
		for i := range objects {
			ev, err := decodeObject(&objects[i])
			if err != nil {
				log.Debug("skipping caldav object", "path", objects[i].Path, "err", err)
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *Store) put(ctx context.Context, objectPath string, ev *event.Event) error {
	cal, err := icalconv.ToCalendar(ev)
	if err != nil {
		return err
	}
	if _, err := s.client.PutCalendarObject(ctx, objectPath, cal); err != nil {
		return err
	}
	encoded, err := icalconv.Encode(cal)
	if err != nil {
		return err
	}
	ev.Raw = encoded
	return nil
}

func decodeObject(obj *caldav.CalendarObject) (*event.Event, error) {
	if obj == nil || obj.Data == nil {
		return nil, fmt.Errorf("no data in calendar object")
	}

	raw, err := icalconv.Encode(obj.Data)
	if err != nil {
		return nil, err
	}

	ev, err := icalconv.FromCalendar(obj.Data, path.Dir(obj.Path)+"/", raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", obj.Path, err)
	}
	ev.Href = obj.Path
	return ev, nil
}

func supportsEvents(cal caldav.Calendar) bool {
	if len(cal.SupportedComponentSet) == 0 {
		return true
	}
	for _, comp := range cal.SupportedComponentSet {
		if comp == ical.CompEvent {
			return true
		}
	}
	return false
}
