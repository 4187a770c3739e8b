package eds

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rbright/eds-schedule/internal/event"
	"gopkg.in/ini.v1"
)

const sourceIface = "org.gnome.evolution.dataserver.Source"

type sourceEntry struct {
	UID string

	DisplayName string
	ParentUID   string
	Enabled     bool

	HasCalendar      bool
	CalendarEnabled  bool
	CalendarSelected bool
	CalendarBackend  string
	CalendarColor    string
	ReadOnly         bool
}

// ListCalendars returns every event calendar known to the source registry,
// sorted by name.
func (c *Client) ListCalendars(ctx context.Context) ([]event.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sourceObj := c.conn.Object(c.sourceService, sourceManagerPath)

	managed := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	if err := sourceObj.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managed); err != nil {
		return nil, fmt.Errorf("eds GetManagedObjects: %w", err)
	}

	entries := make(map[string]sourceEntry, len(managed))
	for _, ifaceMap := range managed {
		sourceProps, ok := ifaceMap[sourceIface]
		if !ok {
			continue
		}

		uid := variantString(sourceProps, "UID")
		data := variantString(sourceProps, "Data")
		if strings.TrimSpace(uid) == "" || strings.TrimSpace(data) == "" {
			continue
		}

		entry, err := parseSourceEntry(uid, data)
		if err != nil {
			continue
		}
		entries[uid] = entry
	}

	calendars := make([]event.Calendar, 0, len(entries))
	for _, entry := range entries {
		if !entry.HasCalendar {
			continue
		}
		calendars = append(calendars, event.Calendar{
			UID:         entry.UID,
			Name:        fallback(entry.DisplayName, entry.UID),
			ParentUID:   entry.ParentUID,
			Backend:     entry.CalendarBackend,
			Color:       entry.CalendarColor,
			Selected:    entry.CalendarSelected,
			Enabled:     entry.Enabled && entry.CalendarEnabled,
			ReadOnly:    entry.ReadOnly,
			AccountName: accountName(entry, entries),
		})
	}

	sort.SliceStable(calendars, func(i, j int) bool {
		nameI := strings.ToLower(calendars[i].Name)
		nameJ := strings.ToLower(calendars[j].Name)
		if nameI != nameJ {
			return nameI < nameJ
		}
		return calendars[i].UID < calendars[j].UID
	})
	return calendars, nil
}

// parseSourceEntry reads the key file EDS keeps for each source.
func parseSourceEntry(uid, data string) (sourceEntry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, []byte(data))
	if err != nil {
		return sourceEntry{}, err
	}

	entry := sourceEntry{UID: uid}

	dataSection := cfg.Section("Data Source")
	entry.DisplayName = strings.TrimSpace(dataSection.Key("DisplayName").String())
	entry.ParentUID = strings.TrimSpace(dataSection.Key("Parent").String())
	entry.Enabled = parseBoolWithDefault(dataSection.Key("Enabled").String(), true)

	if offline, err := cfg.GetSection("Offline"); err == nil {
		entry.ReadOnly = parseBoolWithDefault(offline.Key("ReadOnly").String(), false)
	}

	calendarSection, err := cfg.GetSection("Calendar")
	if err != nil {
		return entry, nil
	}
	entry.HasCalendar = true
	entry.CalendarEnabled = parseBoolWithDefault(calendarSection.Key("Enabled").String(), true)
	entry.CalendarSelected = parseBoolWithDefault(calendarSection.Key("Selected").String(), false)
	entry.CalendarBackend = strings.TrimSpace(calendarSection.Key("BackendName").String())
	entry.CalendarColor = strings.TrimSpace(calendarSection.Key("Color").String())
	return entry, nil
}

func variantString(props map[string]dbus.Variant, key string) string {
	value, ok := props[key]
	if !ok {
		return ""
	}
	asString, _ := value.Value().(string)
	return asString
}

func parseBoolWithDefault(value string, fallback bool) bool {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

// accountName is the display name of the source's parent collection, if any.
// EDS parents local calendars to "*-stub" placeholders, which are skipped.
func accountName(entry sourceEntry, entries map[string]sourceEntry) string {
	parentUID := entry.ParentUID
	if parentUID == "" || strings.HasSuffix(parentUID, "-stub") {
		return ""
	}

	parent, ok := entries[parentUID]
	if !ok {
		return ""
	}

	name := strings.TrimSpace(parent.DisplayName)
	if name == "" || strings.HasSuffix(strings.ToLower(name), "stub") {
		return ""
	}
	return name
}

func fallback(value, fallbackValue string) string {
	if strings.TrimSpace(value) == "" {
		return fallbackValue
	}
	return value
}
