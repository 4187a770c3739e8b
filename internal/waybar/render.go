package waybar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/rbright/eds-schedule/internal/state"
)

const (
	iconEditing = "✎"
	iconIdle    = "󰃭"
)

type Output struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// Render describes the open edit session, or the idle state when session
// is nil.
func Render(session *state.Session, now time.Time) Output {
	if session == nil {
		return Output{
			Text:    iconIdle,
			Tooltip: "No event is being edited",
			Class:   "idle",
		}
	}

	s := session.Schedule
	class := "editing"
	if schedule.Changed(s) {
		class = "modified"
	}
	if session.IsNew() {
		class += " new"
	}

	title := fallback(session.Summary, "Untitled event")
	text := fmt.Sprintf("%s %s", iconEditing, truncate(title, 32))
	if class != "editing" && !session.IsNew() {
		text += " *"
	}

	return Output{
		Text:    text,
		Tooltip: tooltip(session, now),
		Class:   class,
	}
}

func RenderError(message string) Output {
	return Output{
		Text:    fmt.Sprintf("%s --", iconEditing),
		Tooltip: strings.TrimSpace(message),
		Class:   "error",
	}
}

func Encode(output Output) ([]byte, error) {
	payload, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshal waybar output: %w", err)
	}
	return payload, nil
}

func tooltip(session *state.Session, now time.Time) string {
	s := session.Schedule
	lines := []string{
		fallback(session.Summary, "Untitled event"),
		schedule.FormatRange(s.Current, s.TimeFormat),
		"Repeats: " + schedule.DescribeRecurrence(s.Current),
	}

	if schedule.Changed(s) {
		lines = append(lines, "Was: "+schedule.FormatRange(s.Original, s.TimeFormat))
	}

	if next, err := schedule.Occurrences(s.Current, now, 1); err == nil && len(next) > 0 {
		lines = append(lines, "Next: in "+schedule.HumanizeDuration(next[0].Start.Sub(now)))
	}

	if schedule.ScopeRequired(s) && schedule.Changed(s) {
		lines = append(lines, "", "Save with: this | future | all")
	}
	return strings.Join(lines, "\n")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func fallback(value, fallbackValue string) string {
	if strings.TrimSpace(value) == "" {
		return fallbackValue
	}
	return strings.TrimSpace(value)
}
