package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("EDS_SCHEDULE_CONFIG_FILE", "")
	for _, key := range []string{"BACKEND", "TIME_FORMAT", "LOG_LEVEL", "TIMEOUT_SECONDS", "PREVIEW_COUNT", "AGENDA_DAYS", "STATE_DIR", "ICS_DIR", "CALDAV_URL"} {
		t.Setenv("EDS_SCHEDULE_"+key, "")
		_ = os.Unsetenv("EDS_SCHEDULE_" + key)
	}
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	tmp := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Backend != BackendEDS {
		t.Fatalf("backend mismatch: %s", cfg.Backend)
	}
	if cfg.TimeFormat != schedule.TimeFormat24h {
		t.Fatalf("time format mismatch: %v", cfg.TimeFormat)
	}
	if cfg.Timeout != 20*time.Second {
		t.Fatalf("timeout mismatch: %v", cfg.Timeout)
	}
	if cfg.PreviewCount != defaultPreviewCount {
		t.Fatalf("preview count mismatch: %d", cfg.PreviewCount)
	}
	if cfg.LogLevel != log.LevelInfo {
		t.Fatalf("log level mismatch: %s", cfg.LogLevel)
	}

	expectedSession := filepath.Join(tmp, "state", "eds-schedule", "session.json")
	if cfg.SessionPath != expectedSession {
		t.Fatalf("session path mismatch: %s", cfg.SessionPath)
	}
	expectedICS := filepath.Join(tmp, "data", "eds-schedule", "calendars")
	if cfg.ICSDir != expectedICS {
		t.Fatalf("ics dir mismatch: %s", cfg.ICSDir)
	}
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	tmp := isolate(t)
	configDir := filepath.Join(tmp, "config", "eds-schedule")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}

	configFile := filepath.Join(configDir, "custom.env")
	content := "# edited by hand\nEDS_SCHEDULE_BACKEND=caldav\nexport EDS_SCHEDULE_TIME_FORMAT=12h\nEDS_SCHEDULE_PREVIEW_COUNT=99\nEDS_SCHEDULE_CALDAV_URL=\"https://dav.example.com/\"\nEDS_SCHEDULE_LOG_LEVEL=debug\n"
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("EDS_SCHEDULE_CONFIG_FILE", configFile)
	t.Setenv("EDS_SCHEDULE_TIMEOUT_SECONDS", "-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ConfigFile != configFile {
		t.Fatalf("config file mismatch: %s", cfg.ConfigFile)
	}
	if cfg.Backend != BackendCalDAV {
		t.Fatalf("backend mismatch: %s", cfg.Backend)
	}
	if cfg.TimeFormat != schedule.TimeFormat12h {
		t.Fatalf("time format mismatch: %v", cfg.TimeFormat)
	}
	if cfg.PreviewCount != maxPreviewCount {
		t.Fatalf("preview count mismatch: %d", cfg.PreviewCount)
	}
	if cfg.CalDAVURL != "https://dav.example.com/" {
		t.Fatalf("caldav url mismatch: %s", cfg.CalDAVURL)
	}
	if cfg.LogLevel != log.LevelDebug {
		t.Fatalf("log level mismatch: %s", cfg.LogLevel)
	}
	if cfg.Timeout != 20*time.Second {
		t.Fatalf("timeout mismatch: %v", cfg.Timeout)
	}
}

func TestLoad_EnvironmentBeatsFile(t *testing.T) {
	tmp := isolate(t)
	configFile := filepath.Join(tmp, "config.env")
	if err := os.WriteFile(configFile, []byte("EDS_SCHEDULE_BACKEND=ics\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("EDS_SCHEDULE_CONFIG_FILE", configFile)
	t.Setenv("EDS_SCHEDULE_BACKEND", "eds")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend != BackendEDS {
		t.Fatalf("backend mismatch: %s", cfg.Backend)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("EDS_SCHEDULE_BACKEND", "exchange")
	t.Setenv("EDS_SCHEDULE_TIME_FORMAT", "36h")
	t.Setenv("EDS_SCHEDULE_LOG_LEVEL", "loud")
	t.Setenv("EDS_SCHEDULE_PREVIEW_COUNT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend != BackendEDS || cfg.TimeFormat != schedule.TimeFormat24h || cfg.LogLevel != log.LevelInfo || cfg.PreviewCount != 1 {
		t.Fatalf("unexpected fallbacks: %+v", cfg)
	}
}
