package event

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const zoneinfoMarker = "zoneinfo/"

// ZoneName returns the IANA name of loc, or "" when it has none, as with
// fixed offsets. time.Local is resolved through $TZ and /etc/localtime.
func ZoneName(loc *time.Location) string {
	if loc == nil {
		return ""
	}
	if loc != time.Local {
		return ianaName(loc.String())
	}

	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return ianaName(tz)
	}

	target, err := filepath.EvalSymlinks("/etc/localtime")
	if err != nil {
		return ""
	}
	idx := strings.LastIndex(target, zoneinfoMarker)
	if idx < 0 {
		return ""
	}
	return ianaName(target[idx+len(zoneinfoMarker):])
}

// LoadZone is the inverse of ZoneName; an empty name means UTC.
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func ianaName(name string) string {
	switch name {
	case "", "Local":
		return ""
	case "UTC":
		return "UTC"
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}
