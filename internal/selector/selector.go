package selector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/eds-schedule/internal/event"
)

var ErrSelectionCancelled = errors.New("calendar selection cancelled")

// runner executes zenity; replaced in tests.
type runner func(ctx context.Context, args []string) (string, error)

// SelectCalendar asks the user to pick one writable calendar and returns its
// UID. The calendar marked preferred, if any, starts selected.
func SelectCalendar(ctx context.Context, calendars []event.Calendar, preferred string) (string, error) {
	writable := writableCalendars(calendars)
	if len(writable) == 0 {
		return "", fmt.Errorf("no writable calendars available")
	}
	if len(writable) == 1 {
		return writable[0].UID, nil
	}

	if !hasGraphicalSession() {
		return "", fmt.Errorf("calendar selection requires a graphical session")
	}

	if _, err := exec.LookPath("zenity"); err != nil {
		return "", fmt.Errorf("zenity is required for calendar selection")
	}

	return selectWithZenity(ctx, writable, preferred, runZenity)
}

func hasGraphicalSession() bool {
	return strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" || strings.TrimSpace(os.Getenv("DISPLAY")) != ""
}

func writableCalendars(calendars []event.Calendar) []event.Calendar {
	result := make([]event.Calendar, 0, len(calendars))
	for _, calendar := range calendars {
		if calendar.ReadOnly || !calendar.Enabled || strings.TrimSpace(calendar.UID) == "" {
			continue
		}
		result = append(result, calendar)
	}
	return result
}

func selectWithZenity(ctx context.Context, calendars []event.Calendar, preferred string, run runner) (string, error) {
	args := []string{
		"--list",
		"--radiolist",
		"--title=New Event",
		"--text=Choose the calendar for the new event",
		"--modal",
		"--width=720",
		"--height=480",
		"--print-column=4",
		"--column=Use",
		"--column=Calendar",
		"--column=Account",
		"--column=UID",
		"--hide-column=4",
	}

	for idx, calendar := range calendars {
		checked := "FALSE"
		if calendar.UID == preferred || (preferred == "" && idx == 0) {
			checked = "TRUE"
		}

		account := strings.TrimSpace(calendar.AccountName)
		if account == "" {
			account = "-"
		}

		args = append(args,
			checked,
			calendarLabel(calendar),
			account,
			calendar.UID,
		)
	}

	out, err := run(ctx, args)
	if err != nil {
		return "", err
	}

	selected := parseSelectionOutput(out)
	if selected == "" {
		return "", ErrSelectionCancelled
	}
	return selected, nil
}

func runZenity(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "zenity", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrSelectionCancelled
		}
		return "", fmt.Errorf("zenity selector failed: %w", err)
	}
	return string(out), nil
}

// parseSelectionOutput returns the first non-empty line of zenity's output.
func parseSelectionOutput(raw string) string {
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '|'
	}) {
		if value := strings.TrimSpace(part); value != "" {
			return value
		}
	}
	return ""
}

func calendarLabel(calendar event.Calendar) string {
	name := strings.TrimSpace(calendar.Name)
	if name == "" {
		name = calendar.UID
	}
	if strings.TrimSpace(calendar.AccountName) != "" {
		return fmt.Sprintf("%s (%s)", name, calendar.AccountName)
	}
	return name
}
