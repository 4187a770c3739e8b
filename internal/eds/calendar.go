package eds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
)

// ErrEventNotFound is returned when a calendar has no object with the uid.
var ErrEventNotFound = errors.New("eds event not found")

// EDS has used both the Calendar and CalendarClient error prefixes.
const objectNotFoundSuffix = ".ObjectNotFound"

// SplitRef splits an EDS reference "<source-uid>/<event-uid>".
func SplitRef(ref string) (sourceUID, uid string, err error) {
	sourceUID, uid, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || strings.TrimSpace(sourceUID) == "" || strings.TrimSpace(uid) == "" {
		return "", "", fmt.Errorf("invalid eds reference %q (expected <source-uid>/<event-uid>)", ref)
	}
	return sourceUID, uid, nil
}

// Load fetches the master component of one event.
func (c *Client) Load(ctx context.Context, ref string) (*event.Event, error) {
	sourceUID, uid, err := SplitRef(ref)
	if err != nil {
		return nil, err
	}

	calendar, closeCalendar, err := c.openCalendar(ctx, sourceUID)
	if err != nil {
		return nil, err
	}
	defer closeCalendar()

	var payload string
	if err := calendar.CallWithContext(ctx, calendarIface+".GetObject", 0, uid, "").Store(&payload); err != nil {
		if isObjectNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, ref)
		}
		return nil, fmt.Errorf("GetObject %s: %w", ref, err)
	}

	ev, err := parseEventPayload(sourceUID, payload)
	if err != nil {
		return nil, err
	}
	log.Debug("eds event loaded", "ref", ev.Href, "recurring", ev.Recurrence().IsPresent())
	return ev, nil
}

// Create stores a new event in the calendar source and returns its reference.
func (c *Client) Create(ctx context.Context, sourceUID string, ev *event.Event) (string, error) {
	payload, err := renderEventPayload(ev, schedule.ScopeAll)
	if err != nil {
		return "", err
	}

	calendar, closeCalendar, err := c.openCalendar(ctx, sourceUID)
	if err != nil {
		return "", err
	}
	defer closeCalendar()

	var uids []string
	if err := calendar.CallWithContext(ctx, calendarIface+".CreateObjects", 0, []string{payload}, uint32(0)).Store(&uids); err != nil {
		return "", fmt.Errorf("CreateObjects: %w", err)
	}

	uid := ev.UID
	if len(uids) > 0 && strings.TrimSpace(uids[0]) != "" {
		uid = uids[0]
	}
	ev.UID = uid
	ev.CalendarUID = sourceUID
	ev.Href = sourceUID + "/" + uid
	ev.Raw = payload
	log.Debug("eds event created", "ref", ev.Href)
	return ev.Href, nil
}

// Save writes the event back with the given modification scope.
func (c *Client) Save(ctx context.Context, ev *event.Event, scope schedule.Scope) error {
	sourceUID, _, err := SplitRef(ev.Href)
	if err != nil {
		return err
	}

	payload, err := renderEventPayload(ev, scope)
	if err != nil {
		return err
	}

	calendar, closeCalendar, err := c.openCalendar(ctx, sourceUID)
	if err != nil {
		return err
	}
	defer closeCalendar()

	modType := modTypeNick(scope)
	if err := calendar.CallWithContext(ctx, calendarIface+".ModifyObjects", 0, []string{payload}, modType, uint32(0)).Err; err != nil {
		if isObjectNotFound(err) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, ev.Href)
		}
		return fmt.Errorf("ModifyObjects %s: %w", ev.Href, err)
	}
	ev.Raw = payload
	log.Debug("eds event modified", "ref", ev.Href, "mod", modType)
	return nil
}

// List returns the stored events of every enabled calendar that occur in
// the window. Recurring events appear once, as their master component.
func (c *Client) List(ctx context.Context, window schedule.Range) ([]*event.Event, error) {
	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	query := buildTimeRangeQuery(window.Start, window.End)
	events := make([]*event.Event, 0, 64)
	failures := make([]string, 0)

	for _, calendar := range calendars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !calendar.Enabled || strings.TrimSpace(calendar.UID) == "" {
			continue
		}

		payloads, err := c.queryCalendar(ctx, calendar.UID, query)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s", calendar.Name, err.Error()))
			continue
		}

		for _, payload := range payloads {
			ev, parseErr := parseEventPayload(calendar.UID, payload)
			if parseErr != nil {
				log.Debug("skipping unparsable payload", "calendar", calendar.UID, "err", parseErr)
				continue
			}
			events = append(events, ev)
		}
	}

	if len(events) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("failed to query calendars: %s", strings.Join(failures, "; "))
	}
	return events, nil
}

func (c *Client) queryCalendar(ctx context.Context, sourceUID, query string) ([]string, error) {
	calendar, closeCalendar, err := c.openCalendar(ctx, sourceUID)
	if err != nil {
		return nil, err
	}
	defer closeCalendar()

	var payloads []string
	if err := calendar.CallWithContext(ctx, calendarIface+".GetObjectList", 0, query).Store(&payloads); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return payloads, nil
}

// modTypeNick maps a scope onto the ECalObjModType nick of ModifyObjects.
func modTypeNick(scope schedule.Scope) string {
	switch scope {
	case schedule.ScopeThis:
		return "this"
	case schedule.ScopeThisAndFuture:
		return "this-and-future"
	default:
		return "all"
	}
}

func isObjectNotFound(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return strings.HasSuffix(dbusErr.Name, objectNotFoundSuffix)
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) {
		return strings.HasSuffix(dbusErrPtr.Name, objectNotFoundSuffix)
	}
	return false
}

func buildTimeRangeQuery(windowStart, windowEnd time.Time) string {
	start := windowStart.UTC().Format(icsUTCLayout)
	end := windowEnd.UTC().Format(icsUTCLayout)
	return fmt.Sprintf("(occur-in-time-range? (make-time \"%s\") (make-time \"%s\"))", start, end)
}
