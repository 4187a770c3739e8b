package event

import (
	"time"

	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
)

// Alarm is a reminder relative to the event start.
type Alarm struct {
	Trigger time.Duration
	Action  string
}

// Event is a calendar store's event record. Stores fill it when loading and
// write its date and recurrence facet back when saving; Raw keeps the
// store's own serialization so untouched properties survive the trip.
type Event struct {
	UID         string
	CalendarUID string
	Summary     string
	Location    string
	Description string
	URL         string
	Alarms      []Alarm

	// ConferenceURL is a provider-specific meeting link such as
	// X-GOOGLE-CONFERENCE.
	ConferenceURL string

	// Href is the store reference the event was loaded from or created at.
	Href string
	Raw  string

	// RecurrenceID is the original start of the one occurrence this record
	// stands for. It is zero for a whole series or a single event.
	RecurrenceID time.Time

	allDay     bool
	start      time.Time
	end        time.Time
	recurrence mo.Option[schedule.Recurrence]
}

// New builds an event with the given timing. For all-day events end is the
// exclusive midnight after the last day, matching DTEND;VALUE=DATE.
func New(uid string, allDay bool, start, end time.Time, rec mo.Option[schedule.Recurrence]) *Event {
	return &Event{
		UID:        uid,
		allDay:     allDay,
		start:      start,
		end:        end,
		recurrence: rec,
	}
}

func (e *Event) AllDay() bool { return e.allDay }

func (e *Event) Start() time.Time { return e.start }

func (e *Event) End() time.Time { return e.end }

func (e *Event) Recurrence() mo.Option[schedule.Recurrence] { return e.recurrence }

func (e *Event) SetAllDay(allDay bool) { e.allDay = allDay }

func (e *Event) SetStart(start time.Time) { e.start = start }

func (e *Event) SetEnd(end time.Time) { e.end = end }

// ClearRecurrence drops any stored rule; stores remove every RRULE they hold
// before writing the new one.
func (e *Event) ClearRecurrence() {
	e.recurrence = mo.None[schedule.Recurrence]()
}

func (e *Event) SetRecurrence(rec schedule.Recurrence) {
	e.recurrence = mo.Some(rec)
}

// Links returns the meeting and general links found on the event.
func (e *Event) Links() (joinURL, eventURL, provider string) {
	return schedule.DeriveLinks(schedule.LinkSource{
		ConferenceURL: e.ConferenceURL,
		URL:           e.URL,
		Location:      e.Location,
		Description:   e.Description,
	})
}
