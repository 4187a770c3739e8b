package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rbright/eds-schedule/internal/caldav"
	"github.com/rbright/eds-schedule/internal/config"
	"github.com/rbright/eds-schedule/internal/eds"
	"github.com/rbright/eds-schedule/internal/event"
	"github.com/rbright/eds-schedule/internal/icsfile"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/rbright/eds-schedule/internal/waybar"
)

const usage = "usage: eds-schedule <status|show|open REF|new [CALENDAR]|all-day on|off|start-date DATE|end-date DATE|" +
	"start DATETIME|end DATETIME|repeat FREQ|limit forever|count|until|count N|until DATE|time-format 12h|24h|title TEXT|" +
	"save [this|future|all]|cancel|calendars|agenda|join>"

// Store is a calendar backend holding the events being edited.
type Store interface {
	ListCalendars(ctx context.Context) ([]event.Calendar, error)
	Load(ctx context.Context, ref string) (*event.Event, error)
	Create(ctx context.Context, calendar string, ev *event.Event) (string, error)
	Save(ctx context.Context, ev *event.Event, scope schedule.Scope) error
	List(ctx context.Context, window schedule.Range) ([]*event.Event, error)
	Close() error
}

var (
	_ Store = (*eds.Client)(nil)
	_ Store = (*icsfile.Store)(nil)
	_ Store = (*caldav.Store)(nil)
)

// ErrScopeRequired is returned when saving an edit of a recurring event
// without saying which occurrences it applies to.
var ErrScopeRequired = errors.New("event repeats: choose save this, save future or save all")

// now is swapped in tests.
var now = time.Now

type command struct {
	name string
	arg  string
}

// arity lists how many arguments each command takes: exactly one, or at
// most one when optional.
var arity = map[string]struct {
	required int
	optional bool
}{
	"status":      {},
	"show":        {},
	"cancel":      {},
	"calendars":   {},
	"agenda":      {},
	"join":        {},
	"open":        {required: 1},
	"new":         {optional: true},
	"all-day":     {required: 1},
	"start-date":  {required: 1},
	"end-date":    {required: 1},
	"start":       {required: 1},
	"end":         {required: 1},
	"repeat":      {required: 1},
	"limit":       {required: 1},
	"count":       {required: 1},
	"until":       {required: 1},
	"time-format": {required: 1},
	"title":       {required: 1},
	"save":        {optional: true},
}

func Run(ctx context.Context, args []string, cfg config.Runtime, stdout io.Writer) error {
	cmd, err := parseArgs(args)
	if err != nil {
		return err
	}

	switch cmd.name {
	case "status":
		return writeOutput(stdout, buildStatus(cfg))
	case "show":
		return show(cfg, stdout)
	case "cancel":
		return cancel(cfg, stdout)
	case "calendars":
		return listCalendars(ctx, cfg, stdout)
	case "agenda":
		return agenda(ctx, cfg, stdout)
	case "join":
		return joinNext(ctx, cfg)
	case "open":
		return open(ctx, cfg, cmd.arg, stdout)
	case "new":
		return newEvent(ctx, cfg, cmd.arg, stdout)
	case "save":
		return save(ctx, cfg, cmd.arg, stdout)
	default:
		return edit(cfg, cmd, stdout)
	}
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "status"}, nil
	}

	name := strings.TrimSpace(args[0])
	want, ok := arity[name]
	if !ok {
		return command{}, errors.New(usage)
	}

	rest := args[1:]
	switch {
	case want.required > 0 && len(rest) != want.required:
		return command{}, fmt.Errorf("usage: eds-schedule %s <value>", name)
	case want.optional && len(rest) > 1:
		return command{}, fmt.Errorf("unexpected argument %q", rest[1])
	case want.required == 0 && !want.optional && len(rest) > 0:
		return command{}, fmt.Errorf("unexpected argument %q", rest[0])
	}

	cmd := command{name: name}
	if len(rest) > 0 {
		cmd.arg = strings.TrimSpace(rest[0])
	}
	return cmd, nil
}

func openStore(ctx context.Context, cfg config.Runtime) (Store, error) {
	switch cfg.Backend {
	case config.BackendICS:
		return icsfile.New(cfg.ICSDir)
	case config.BackendCalDAV:
		return caldav.New(caldav.Options{
			URL:      cfg.CalDAVURL,
			Username: cfg.CalDAVUsername,
			Password: cfg.CalDAVPassword,
			Timeout:  cfg.Timeout,
		})
	default:
		client, err := eds.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("EDS is not available: %w", err)
		}
		return client, nil
	}
}

func writeOutput(w io.Writer, output waybar.Output) error {
	payload, err := waybar.Encode(output)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}
