package selector

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rbright/eds-schedule/internal/event"
)

func TestParseSelectionOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "newline separated", raw: "work-uid\n", want: "work-uid"},
		{name: "pipe separated", raw: "work-uid|ignored", want: "work-uid"},
		{name: "trimmed", raw: "  work-uid  ", want: "work-uid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSelectionOutput(tt.raw); got != tt.want {
				t.Fatalf("parseSelectionOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalendarLabel(t *testing.T) {
	tests := []struct {
		name     string
		calendar event.Calendar
		want     string
	}{
		{name: "name only", calendar: event.Calendar{UID: "u", Name: "Work"}, want: "Work"},
		{name: "with account", calendar: event.Calendar{UID: "u", Name: "Work", AccountName: "me@example.com"}, want: "Work (me@example.com)"},
		{name: "uid fallback", calendar: event.Calendar{UID: "u"}, want: "u"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendarLabel(tt.calendar); got != tt.want {
				t.Fatalf("calendarLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectCalendar_SingleWritableSkipsDialog(t *testing.T) {
	calendars := []event.Calendar{
		{UID: "holidays", Name: "Holidays", Enabled: true, ReadOnly: true},
		{UID: "work", Name: "Work", Enabled: true},
		{UID: "old", Name: "Old", Enabled: false},
	}

	got, err := SelectCalendar(context.Background(), calendars, "")
	if err != nil {
		t.Fatalf("SelectCalendar() error = %v", err)
	}
	if got != "work" {
		t.Fatalf("SelectCalendar() = %q, want %q", got, "work")
	}
}

func TestSelectCalendar_NoneWritable(t *testing.T) {
	_, err := SelectCalendar(context.Background(), []event.Calendar{{UID: "holidays", ReadOnly: true, Enabled: true}}, "")
	if err == nil {
		t.Fatalf("SelectCalendar() expected error")
	}
}

func TestSelectWithZenity_MarksPreferred(t *testing.T) {
	calendars := []event.Calendar{
		{UID: "home", Name: "Home", Enabled: true},
		{UID: "work", Name: "Work", Enabled: true},
	}

	var gotArgs []string
	run := func(_ context.Context, args []string) (string, error) {
		gotArgs = args
		return "work\n", nil
	}

	got, err := selectWithZenity(context.Background(), calendars, "work", run)
	if err != nil {
		t.Fatalf("selectWithZenity() error = %v", err)
	}
	if got != "work" {
		t.Fatalf("selectWithZenity() = %q, want %q", got, "work")
	}

	homeRow := slices.Index(gotArgs, "home")
	workRow := slices.Index(gotArgs, "work")
	if homeRow < 3 || workRow < 3 {
		t.Fatalf("calendar rows missing from args: %v", gotArgs)
	}
	if gotArgs[homeRow-3] != "FALSE" || gotArgs[workRow-3] != "TRUE" {
		t.Fatalf("unexpected radio state: home=%s work=%s", gotArgs[homeRow-3], gotArgs[workRow-3])
	}
}

func TestSelectWithZenity_Cancelled(t *testing.T) {
	calendars := []event.Calendar{{UID: "home"}, {UID: "work"}}

	empty := func(context.Context, []string) (string, error) { return "\n", nil }
	if _, err := selectWithZenity(context.Background(), calendars, "", empty); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got %v", err)
	}

	closed := func(context.Context, []string) (string, error) { return "", ErrSelectionCancelled }
	if _, err := selectWithZenity(context.Background(), calendars, "", closed); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got %v", err)
	}
}
