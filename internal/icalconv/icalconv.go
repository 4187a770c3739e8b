// Package icalconv converts between event.Event and emersion go-ical
// calendars for the stores that keep whole iCalendar objects.
package icalconv

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
)

const (
	productID = "-//rbright//eds-schedule//EN"

	propConference = "X-GOOGLE-CONFERENCE"
)

// ErrScopeUnsupported is returned when a store can only rewrite the whole
// series but the caller asked for a narrower scope.
var ErrScopeUnsupported = errors.New("store can only modify all occurrences of a recurring event")

// Decode parses one iCalendar object.
func Decode(data string) (*ical.Calendar, error) {
	cal, err := ical.NewDecoder(strings.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode icalendar: %w", err)
	}
	return cal, nil
}

// Encode serializes cal, failing when required properties are missing.
func Encode(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode icalendar: %w", err)
	}
	return buf.String(), nil
}

// FromCalendar reads the master VEVENT of cal. raw is kept on the event so a
// later ToCalendar preserves everything this package does not model.
func FromCalendar(cal *ical.Calendar, calendarUID, raw string) (*event.Event, error) {
	master := masterEvent(cal)
	if master == nil {
		return nil, fmt.Errorf("calendar object has no VEVENT")
	}

	dtStart := master.Props.Get(ical.PropDateTimeStart)
	if dtStart == nil {
		return nil, fmt.Errorf("VEVENT has no DTSTART")
	}
	allDay := dtStart.ValueType() == ical.ValueDate

	start, err := master.DateTimeStart(time.Local)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := master.DateTimeEnd(time.Local)
	if err != nil || end.IsZero() {
		end = defaultEnd(start, allDay)
	}

	rec := mo.None[schedule.Recurrence]()
	if prop := master.Props.Get(ical.PropRecurrenceRule); prop != nil {
		rec, err = schedule.ParseRecurrence(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("RRULE: %w", err)
		}
	}

	ev := event.New(textProp(master.Props, ical.PropUID), allDay, start, end, rec)
	ev.CalendarUID = calendarUID
	ev.Summary = textProp(master.Props, ical.PropSummary)
	ev.Location = textProp(master.Props, ical.PropLocation)
	ev.Description = textProp(master.Props, ical.PropDescription)
	ev.URL = textProp(master.Props, ical.PropURL)
	ev.ConferenceURL = textProp(master.Props, propConference)
	ev.Alarms = alarms(master.Component)
	ev.Raw = raw
	return ev, nil
}

// ToCalendar writes ev into its Raw calendar, or a fresh one. Only the date
// and recurrence facet plus empty descriptive fields are touched on
// existing objects.
func ToCalendar(ev *event.Event) (*ical.Calendar, error) {
	var cal *ical.Calendar
	if strings.TrimSpace(ev.Raw) != "" {
		decoded, err := Decode(ev.Raw)
		if err != nil {
			return nil, err
		}
		cal = decoded
	} else {
		cal = ical.NewCalendar()
		cal.Props.SetText(ical.PropVersion, "2.0")
		cal.Props.SetText(ical.PropProductID, productID)
	}

	master := masterEvent(cal)
	if master == nil {
		master = ical.NewEvent()
		cal.Children = append(cal.Children, master.Component)
	}

	if master.Props.Get(ical.PropUID) == nil {
		master.Props.SetText(ical.PropUID, ev.UID)
	}
	if master.Props.Get(ical.PropSummary) == nil && ev.Summary != "" {
		master.Props.SetText(ical.PropSummary, ev.Summary)
	}
	master.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	master.Props.Del(ical.PropDuration)
	if ev.AllDay() {
		master.Props.SetDate(ical.PropDateTimeStart, ev.Start())
		master.Props.SetDate(ical.PropDateTimeEnd, ev.End())
	} else {
		setDateTime(master.Props, ical.PropDateTimeStart, ev.Start())
		setDateTime(master.Props, ical.PropDateTimeEnd, ev.End())
	}

	master.Props.Del(ical.PropRecurrenceRule)
	if rec, ok := ev.Recurrence().Get(); ok {
		rule, err := rec.RRuleFor(ev.AllDay())
		if err != nil {
			return nil, err
		}
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rule
		master.Props.Set(prop)
	}
	return cal, nil
}

// CheckScope rejects partial edits of a series for stores that rewrite
// whole objects.
func CheckScope(ev *event.Event, scope schedule.Scope) error {
	switch scope {
	case schedule.ScopeAll, schedule.ScopeUnset:
		return nil
	case schedule.ScopeThis:
		if !wasRecurring(ev.Raw) {
			return nil
		}
	}
	return fmt.Errorf("%w (scope %s)", ErrScopeUnsupported, scope)
}

// ParseTrigger reads a relative alarm TRIGGER such as -PT15M.
func ParseTrigger(value string) (time.Duration, error) {
	prop := ical.NewProp(ical.PropTrigger)
	prop.SetValueType(ical.ValueDuration)
	prop.Value = strings.TrimSpace(value)
	return prop.Duration()
}

func wasRecurring(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	cal, err := Decode(raw)
	if err != nil {
		return false
	}
	master := masterEvent(cal)
	return master != nil && master.Props.Get(ical.PropRecurrenceRule) != nil
}

// masterEvent is the first VEVENT without RECURRENCE-ID.
func masterEvent(cal *ical.Calendar) *ical.Event {
	events := cal.Events()
	for i := range events {
		if events[i].Props.Get(ical.PropRecurrenceID) == nil {
			return &events[i]
		}
	}
	return nil
}

// setDateTime writes t with its TZID, or in UTC when the zone has no name.
func setDateTime(props ical.Props, name string, t time.Time) {
	if zone := event.ZoneName(t.Location()); zone != "" && zone != "UTC" {
		props.SetDateTime(name, t.In(mustLoad(zone)))
		return
	}
	props.SetDateTime(name, t.UTC())
}

func mustLoad(zone string) *time.Location {
	loc, err := event.LoadZone(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func alarms(comp *ical.Component) []event.Alarm {
	var out []event.Alarm
	for _, child := range comp.Children {
		if child.Name != ical.CompAlarm {
			continue
		}
		trigger := child.Props.Get(ical.PropTrigger)
		if trigger == nil {
			continue
		}
		offset, err := ParseTrigger(trigger.Value)
		if err != nil {
			continue
		}
		out = append(out, event.Alarm{Trigger: offset, Action: textProp(child.Props, ical.PropAction)})
	}
	return out
}

func textProp(props ical.Props, name string) string {
	value, err := props.Text(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func defaultEnd(start time.Time, allDay bool) time.Time {
	if allDay {
		return start.AddDate(0, 0, 1)
	}
	return start
}
