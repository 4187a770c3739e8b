package eds

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rbright/eds-schedule/internal/log"
)

const (
	sourceServicePrefix   = "org.gnome.evolution.dataserver.Sources"
	calendarServicePrefix = "org.gnome.evolution.dataserver.Calendar"

	sourceManagerPath   = dbus.ObjectPath("/org/gnome/evolution/dataserver/SourceManager")
	calendarFactoryPath = dbus.ObjectPath("/org/gnome/evolution/dataserver/CalendarFactory")

	calendarFactoryIface = "org.gnome.evolution.dataserver.CalendarFactory"
	calendarIface        = "org.gnome.evolution.dataserver.Calendar"
)

// Client talks to the Evolution Data Server over the session bus.
type Client struct {
	conn            *dbus.Conn
	sourceService   string
	calendarService string
}

func New(ctx context.Context) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	sourceService, err := findServiceName(ctx, conn, sourceServicePrefix)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	calendarService, err := findServiceName(ctx, conn, calendarServicePrefix)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug("eds services resolved", "sources", sourceService, "calendar", calendarService)
	return &Client{
		conn:            conn,
		sourceService:   sourceService,
		calendarService: calendarService,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// openCalendar asks the factory for a backend serving sourceUID and opens it.
// The returned close func must be called when done.
func (c *Client) openCalendar(ctx context.Context, sourceUID string) (dbus.BusObject, func(), error) {
	factory := c.conn.Object(c.calendarService, calendarFactoryPath)

	var objectPath, busName string
	if err := factory.CallWithContext(ctx, calendarFactoryIface+".OpenCalendar", 0, strings.TrimSpace(sourceUID)).Store(&objectPath, &busName); err != nil {
		return nil, nil, fmt.Errorf("OpenCalendar: %w", err)
	}
	if strings.TrimSpace(objectPath) == "" {
		return nil, nil, fmt.Errorf("OpenCalendar returned empty object path")
	}
	if strings.TrimSpace(busName) == "" {
		return nil, nil, fmt.Errorf("OpenCalendar returned empty bus name")
	}

	calendar := c.conn.Object(busName, dbus.ObjectPath(objectPath))

	var properties []string
	if err := calendar.CallWithContext(ctx, calendarIface+".Open", 0).Store(&properties); err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}

	closeFn := func() {
		_ = calendar.Call(calendarIface+".Close", 0)
	}
	return calendar, closeFn, nil
}

func findServiceName(ctx context.Context, conn *dbus.Conn, prefix string) (string, error) {
	busObj := conn.BusObject()

	var names []string
	if err := busObj.CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err == nil {
		if best := bestMatchingService(names, prefix); best != "" {
			return best, nil
		}
	}

	var activatable []string
	if err := busObj.CallWithContext(ctx, "org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err == nil {
		if best := bestMatchingService(activatable, prefix); best != "" {
			return best, nil
		}
	}

	return "", fmt.Errorf("dbus service with prefix %q not found", prefix)
}

// bestMatchingService prefers the highest versioned name, e.g.
// org.gnome.evolution.dataserver.Calendar8 over ...Calendar7.
func bestMatchingService(names []string, prefix string) string {
	matches := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.SliceStable(matches, func(i, j int) bool {
		versionI := serviceVersion(matches[i], prefix)
		versionJ := serviceVersion(matches[j], prefix)
		if versionI != versionJ {
			return versionI > versionJ
		}
		return matches[i] < matches[j]
	})
	return matches[0]
}

func serviceVersion(name, prefix string) int {
	version, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, prefix)))
	if err != nil {
		return 0
	}
	return version
}
