package eds

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/icalconv"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
)

const (
	icsDateLayout     = "20060102"
	icsLocalLayout    = "20060102T150405"
	icsUTCLayout      = "20060102T150405Z"
	propertyGoogleURL = ics.ComponentProperty("X-GOOGLE-CONFERENCE")
)

// parseEventPayload maps the master VEVENT of an EDS payload. EDS hands out
// a bare VEVENT, or a VCALENDAR when detached instances exist.
func parseEventPayload(calendarUID, payload string) (*event.Event, error) {
	parsed, err := parsePayload(payload)
	if err != nil {
		return nil, err
	}

	master := masterEvent(parsed)
	if master == nil {
		return nil, fmt.Errorf("payload has no VEVENT")
	}
	return mapEvent(calendarUID, master, payload)
}

func parsePayload(payload string) (*ics.Calendar, error) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		trimmed = "BEGIN:VCALENDAR\n" + trimmed + "\nEND:VCALENDAR\n"
	}
	parsed, err := ics.ParseCalendar(strings.NewReader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("parse ics payload: %w", err)
	}
	return parsed, nil
}

func masterEvent(cal *ics.Calendar) *ics.VEvent {
	for _, vevent := range cal.Events() {
		if vevent.GetProperty(ics.ComponentPropertyRecurrenceId) == nil {
			return vevent
		}
	}
	return nil
}

func mapEvent(calendarUID string, vevent *ics.VEvent, payload string) (*event.Event, error) {
	dtStart := vevent.GetProperty(ics.ComponentPropertyDtStart)
	if dtStart == nil {
		return nil, fmt.Errorf("VEVENT has no DTSTART")
	}
	start, err := parseICSTimeValue(dtStart.Value, dtStart.ICalParameters)
	if err != nil {
		return nil, err
	}
	allDay := isAllDay(dtStart)

	end := start
	if allDay {
		end = start.AddDate(0, 0, 1)
	}
	if dtEnd := vevent.GetProperty(ics.ComponentPropertyDtEnd); dtEnd != nil {
		if parsed, parseErr := parseICSTimeValue(dtEnd.Value, dtEnd.ICalParameters); parseErr == nil && !parsed.Before(start) {
			end = parsed
		}
	}

	rec := mo.None[schedule.Recurrence]()
	if rule := strings.TrimSpace(propertyValue(vevent.GetProperty(ics.ComponentPropertyRrule))); rule != "" {
		rec, err = schedule.ParseRecurrence(rule)
		if err != nil {
			return nil, err
		}
	}

	uid := sanitize(propertyValue(vevent.GetProperty(ics.ComponentPropertyUniqueId)))
	ev := event.New(uid, allDay, start, end, rec)
	ev.CalendarUID = calendarUID
	ev.Href = calendarUID + "/" + uid
	ev.Summary = sanitize(propertyValue(vevent.GetProperty(ics.ComponentPropertySummary)))
	ev.Description = strings.TrimSpace(propertyValue(vevent.GetProperty(ics.ComponentPropertyDescription)))
	ev.Location = strings.TrimSpace(propertyValue(vevent.GetProperty(ics.ComponentPropertyLocation)))
	ev.URL = strings.TrimSpace(propertyValue(vevent.GetProperty(ics.ComponentPropertyUrl)))
	ev.ConferenceURL = strings.TrimSpace(propertyValue(vevent.GetProperty(propertyGoogleURL)))
	ev.Alarms = collectAlarms(vevent)
	ev.Raw = payload
	return ev, nil
}

func collectAlarms(vevent *ics.VEvent) []event.Alarm {
	var alarms []event.Alarm
	for _, alarm := range vevent.Alarms() {
		trigger := alarm.GetProperty(ics.ComponentPropertyTrigger)
		if trigger == nil {
			continue
		}
		offset, err := icalconv.ParseTrigger(trigger.Value)
		if err != nil {
			continue
		}
		alarms = append(alarms, event.Alarm{
			Trigger: offset,
			Action:  sanitize(propertyValue(alarm.GetProperty(ics.ComponentPropertyAction))),
		})
	}
	return alarms
}

// renderEventPayload writes the event's timing and recurrence into its raw
// payload, or a new VEVENT, and returns the bare VEVENT text EDS expects.
//
// Saving one occurrence of a series, or it and the ones after it, needs
// ev.RecurrenceID: the payload then names that occurrence, and a single
// occurrence is written without the series rule.
func renderEventPayload(ev *event.Event, scope schedule.Scope) (string, error) {
	var vevent *ics.VEvent
	if strings.TrimSpace(ev.Raw) != "" {
		parsed, err := parsePayload(ev.Raw)
		if err != nil {
			return "", err
		}
		vevent = masterEvent(parsed)
		if vevent == nil {
			return "", fmt.Errorf("payload has no VEVENT")
		}
	} else {
		vevent = ics.NewCalendar().AddEvent(ev.UID)
		if ev.Summary != "" {
			vevent.SetSummary(ev.Summary)
		}
	}
	vevent.SetDtStampTime(time.Now().UTC())

	partial := scope == schedule.ScopeThis || scope == schedule.ScopeThisAndFuture
	if partial && ev.RecurrenceID.IsZero() && vevent.GetProperty(ics.ComponentPropertyRrule) != nil {
		return "", fmt.Errorf("%w: no occurrence given for scope %s", icalconv.ErrScopeUnsupported, scope)
	}
	seriesAllDay := isAllDay(vevent.GetProperty(ics.ComponentPropertyDtStart))

	removeProperties(vevent, ics.ComponentPropertyDtStart, ics.ComponentPropertyDtEnd, ics.ComponentPropertyDuration, ics.ComponentPropertyRrule)
	if ev.AllDay() {
		vevent.AddProperty(ics.ComponentPropertyDtStart, ev.Start().Format(icsDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
		vevent.AddProperty(ics.ComponentPropertyDtEnd, ev.End().Format(icsDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
	} else {
		addDateTime(vevent, ics.ComponentPropertyDtStart, ev.Start())
		addDateTime(vevent, ics.ComponentPropertyDtEnd, ev.End())
	}

	removeProperties(vevent, ics.ComponentPropertyRecurrenceId)
	if partial && !ev.RecurrenceID.IsZero() {
		addRecurrenceID(vevent, ev.RecurrenceID, seriesAllDay, scope == schedule.ScopeThisAndFuture)
		if scope == schedule.ScopeThis {
			removeProperties(vevent, ics.ComponentPropertyRdate, ics.ComponentPropertyExdate)
			return serializeVEvent(vevent), nil
		}
	}

	if rec, ok := ev.Recurrence().Get(); ok {
		rule, err := rec.RRuleFor(ev.AllDay())
		if err != nil {
			return "", err
		}
		vevent.AddProperty(ics.ComponentPropertyRrule, rule)
	}

	return serializeVEvent(vevent), nil
}

// addRecurrenceID names the occurrence starting at id, in the value type of
// the series' DTSTART.
func addRecurrenceID(vevent *ics.VEvent, id time.Time, allDay, thisAndFuture bool) {
	if allDay {
		vevent.AddProperty(ics.ComponentPropertyRecurrenceId, id.Format(icsDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
	} else {
		addDateTime(vevent, ics.ComponentPropertyRecurrenceId, id)
	}
	if thisAndFuture {
		property := vevent.GetProperty(ics.ComponentPropertyRecurrenceId)
		if property.ICalParameters == nil {
			property.ICalParameters = map[string][]string{}
		}
		property.ICalParameters[string(ics.ParameterRange)] = []string{"THISANDFUTURE"}
	}
}

func addDateTime(vevent *ics.VEvent, property ics.ComponentProperty, t time.Time) {
	zone := event.ZoneName(t.Location())
	if zone == "" || zone == "UTC" {
		vevent.AddProperty(property, t.UTC().Format(icsUTCLayout))
		return
	}
	loc, err := event.LoadZone(zone)
	if err != nil {
		vevent.AddProperty(property, t.UTC().Format(icsUTCLayout))
		return
	}
	vevent.AddProperty(property, t.In(loc).Format(icsLocalLayout), &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{zone}})
}

func removeProperties(vevent *ics.VEvent, properties ...ics.ComponentProperty) {
	kept := vevent.Properties[:0]
	for _, property := range vevent.Properties {
		drop := false
		for _, name := range properties {
			if strings.EqualFold(property.IANAToken, string(name)) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, property)
		}
	}
	vevent.Properties = kept
}

// serializeVEvent renders only the VEVENT block of a one-event calendar.
func serializeVEvent(vevent *ics.VEvent) string {
	cal := ics.NewCalendar()
	cal.Components = append(cal.Components, vevent)
	serialized := cal.Serialize()

	begin := strings.Index(serialized, "BEGIN:VEVENT")
	end := strings.LastIndex(serialized, "END:VEVENT")
	if begin < 0 || end < begin {
		return serialized
	}
	return serialized[begin : end+len("END:VEVENT")]
}

func parseICSTimeValue(value string, params map[string][]string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	location := time.Local
	if tzIDs, ok := params[string(ics.ParameterTzid)]; ok && len(tzIDs) > 0 && strings.TrimSpace(tzIDs[0]) != "" {
		if loaded, err := time.LoadLocation(strings.TrimSpace(tzIDs[0])); err == nil {
			location = loaded
		}
	}

	layouts := []string{
		icsUTCLayout,
		"20060102T1504Z",
		icsLocalLayout,
		"20060102T1504",
		icsDateLayout,
	}

	for _, layout := range layouts {
		if strings.HasSuffix(layout, "Z") {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, nil
			}
			continue
		}
		if parsed, err := time.ParseInLocation(layout, trimmed, location); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time value %q", trimmed)
}

func isAllDay(property *ics.IANAProperty) bool {
	if property == nil {
		return false
	}
	for _, value := range property.ICalParameters[string(ics.ParameterValue)] {
		if strings.EqualFold(strings.TrimSpace(value), string(ics.ValueDataTypeDate)) {
			return true
		}
	}
	return len(strings.TrimSpace(property.Value)) == len(icsDateLayout)
}

func propertyValue(property *ics.IANAProperty) string {
	if property == nil {
		return ""
	}
	return property.Value
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}
