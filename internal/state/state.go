package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/fsutil"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/samber/mo"
)

const SessionFileName = "session.json"

var ErrNoSession = errors.New("no edit session in progress")

// Session is an edit in progress between two CLI invocations.
type Session struct {
	Backend string
	// Ref is the store reference of the event; empty for an event that has
	// not been created yet.
	Ref      string
	Calendar string
	UID      string
	Summary  string
	Schedule schedule.EventSchedule

	UpdatedAt time.Time
}

// IsNew reports whether saving the session creates the event.
func (s Session) IsNew() bool {
	return strings.TrimSpace(s.Ref) == ""
}

type sessionFile struct {
	Backend    string     `json:"backend"`
	Ref        string     `json:"ref,omitempty"`
	Calendar   string     `json:"calendar,omitempty"`
	UID        string     `json:"uid,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	TimeFormat string     `json:"timeFormat"`
	Original   valuesFile `json:"original"`
	Current    valuesFile `json:"current"`
	UpdatedAt  string     `json:"updatedAt,omitempty"`
}

type valuesFile struct {
	AllDay     bool            `json:"allDay"`
	Start      timeFile        `json:"start"`
	End        timeFile        `json:"end"`
	Recurrence *recurrenceFile `json:"recurrence,omitempty"`
}

// timeFile keeps the zone name next to the instant; RFC 3339 alone only
// carries the offset.
type timeFile struct {
	At   string `json:"at"`
	Zone string `json:"zone,omitempty"`
}

type recurrenceFile struct {
	Frequency string    `json:"frequency"`
	Limit     string    `json:"limit"`
	Count     uint      `json:"count,omitempty"`
	Until     *timeFile `json:"until,omitempty"`
	// Rule is set for rules with parts the frequency enum cannot express.
	Rule string `json:"rule,omitempty"`
}

func SaveSession(path string, session Session) error {
	file, err := encodeSession(session)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return fsutil.WriteFileAtomically(path, append(payload, '\n'))
}

func LoadSession(path string) (Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return Session{}, ErrNoSession
	}

	var file sessionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Session{}, fmt.Errorf("decode session file: %w", err)
	}
	return decodeSession(file)
}

// ClearSession removes the session file; a missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func encodeSession(session Session) (sessionFile, error) {
	original, err := encodeValues(session.Schedule.Original)
	if err != nil {
		return sessionFile{}, fmt.Errorf("original values: %w", err)
	}
	current, err := encodeValues(session.Schedule.Current)
	if err != nil {
		return sessionFile{}, fmt.Errorf("current values: %w", err)
	}

	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	return sessionFile{
		Backend:    session.Backend,
		Ref:        session.Ref,
		Calendar:   session.Calendar,
		UID:        session.UID,
		Summary:    session.Summary,
		TimeFormat: session.Schedule.TimeFormat.String(),
		Original:   original,
		Current:    current,
		UpdatedAt:  updatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func decodeSession(file sessionFile) (Session, error) {
	original, err := decodeValues(file.Original)
	if err != nil {
		return Session{}, fmt.Errorf("original values: %w", err)
	}
	current, err := decodeValues(file.Current)
	if err != nil {
		return Session{}, fmt.Errorf("current values: %w", err)
	}

	format, _ := schedule.ParseTimeFormat(file.TimeFormat)
	updatedAt, _ := time.Parse(time.RFC3339, file.UpdatedAt)

	return Session{
		Backend:  file.Backend,
		Ref:      file.Ref,
		Calendar: file.Calendar,
		UID:      file.UID,
		Summary:  file.Summary,
		Schedule: schedule.EventSchedule{
			Original:   original,
			Current:    current,
			TimeFormat: format,
		},
		UpdatedAt: updatedAt,
	}, nil
}

func encodeValues(values schedule.Values) (valuesFile, error) {
	file := valuesFile{
		AllDay: values.AllDay,
		Start:  encodeTime(values.Start),
		End:    encodeTime(values.End),
	}

	rec, ok := values.Recurrence.Get()
	if !ok {
		return file, nil
	}

	recFile := &recurrenceFile{
		Frequency: rec.Frequency.String(),
		Limit:     rec.Limit.String(),
		Count:     rec.Count,
	}
	if !rec.Until.IsZero() {
		until := encodeTime(rec.Until)
		recFile.Until = &until
	}
	if rec.HasRule() {
		rule, err := rec.RRule()
		if err != nil {
			return valuesFile{}, err
		}
		recFile.Rule = rule
	}
	file.Recurrence = recFile
	return file, nil
}

func decodeValues(file valuesFile) (schedule.Values, error) {
	start, err := decodeTime(file.Start)
	if err != nil {
		return schedule.Values{}, fmt.Errorf("start: %w", err)
	}
	end, err := decodeTime(file.End)
	if err != nil {
		return schedule.Values{}, fmt.Errorf("end: %w", err)
	}

	values := schedule.Values{AllDay: file.AllDay, Start: start, End: end}
	if file.Recurrence == nil {
		return values, nil
	}

	rec, err := decodeRecurrence(*file.Recurrence)
	if err != nil {
		return schedule.Values{}, err
	}
	values.Recurrence = rec
	return values, nil
}

func decodeRecurrence(file recurrenceFile) (mo.Option[schedule.Recurrence], error) {
	if file.Rule != "" {
		return schedule.ParseRecurrence(file.Rule)
	}

	frequency, ok := schedule.ParseFrequency(file.Frequency)
	if !ok {
		return mo.None[schedule.Recurrence](), fmt.Errorf("unknown frequency %q", file.Frequency)
	}
	if frequency == schedule.FrequencyNone {
		return mo.None[schedule.Recurrence](), nil
	}
	limit, ok := schedule.ParseLimitType(file.Limit)
	if !ok {
		return mo.None[schedule.Recurrence](), fmt.Errorf("unknown limit %q", file.Limit)
	}

	rec := schedule.Recurrence{Frequency: frequency, Limit: limit, Count: file.Count}
	if file.Until != nil {
		until, err := decodeTime(*file.Until)
		if err != nil {
			return mo.None[schedule.Recurrence](), fmt.Errorf("until: %w", err)
		}
		rec.Until = until
	}
	return mo.Some(rec), nil
}

func encodeTime(t time.Time) timeFile {
	return timeFile{
		At:   t.Format(time.RFC3339Nano),
		Zone: event.ZoneName(t.Location()),
	}
}

func decodeTime(file timeFile) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, file.At)
	if err != nil {
		return time.Time{}, err
	}
	if file.Zone == "" {
		return parsed, nil
	}
	loc, err := event.LoadZone(file.Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("zone %q: %w", file.Zone, err)
	}
	return parsed.In(loc), nil
}
