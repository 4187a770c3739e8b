package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rbright/eds-schedule/internal/log"
	"github.com/rbright/eds-schedule/internal/schedule"
	"github.com/spf13/viper"
)

const (
	BackendEDS    = "eds"
	BackendICS    = "ics"
	BackendCalDAV = "caldav"

	defaultTimeoutSeconds = 20
	defaultPreviewCount   = 5
	maxPreviewCount       = 50
	defaultAgendaDays     = 7
)

type Runtime struct {
	ConfigFile string

	Backend    string
	TimeFormat schedule.TimeFormat
	LogLevel   log.Level
	Timeout    time.Duration

	// PreviewCount is how many upcoming occurrences "show" lists.
	PreviewCount int
	AgendaDays   int

	StateDir    string
	SessionPath string
	ICSDir      string

	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	xdgState := xdgDir("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	xdgData := xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))

	configFile := strings.TrimSpace(os.Getenv("EDS_SCHEDULE_CONFIG_FILE"))
	if configFile == "" {
		configFile = filepath.Join(xdgConfig, "eds-schedule", "config.env")
	}

	if err := loadEnvFile(configFile); err != nil {
		return Runtime{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("EDS_SCHEDULE")
	v.AutomaticEnv()

	_ = v.BindEnv("backend", "EDS_SCHEDULE_BACKEND")
	_ = v.BindEnv("time_format", "EDS_SCHEDULE_TIME_FORMAT")
	_ = v.BindEnv("log_level", "EDS_SCHEDULE_LOG_LEVEL")
	_ = v.BindEnv("timeout_seconds", "EDS_SCHEDULE_TIMEOUT_SECONDS")
	_ = v.BindEnv("preview_count", "EDS_SCHEDULE_PREVIEW_COUNT")
	_ = v.BindEnv("agenda_days", "EDS_SCHEDULE_AGENDA_DAYS")
	_ = v.BindEnv("state_dir", "EDS_SCHEDULE_STATE_DIR")
	_ = v.BindEnv("ics_dir", "EDS_SCHEDULE_ICS_DIR")
	_ = v.BindEnv("caldav_url", "EDS_SCHEDULE_CALDAV_URL")
	_ = v.BindEnv("caldav_username", "EDS_SCHEDULE_CALDAV_USERNAME")
	_ = v.BindEnv("caldav_password", "EDS_SCHEDULE_CALDAV_PASSWORD")

	v.SetDefault("backend", BackendEDS)
	v.SetDefault("time_format", schedule.TimeFormat24h.String())
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout_seconds", defaultTimeoutSeconds)
	v.SetDefault("preview_count", defaultPreviewCount)
	v.SetDefault("agenda_days", defaultAgendaDays)
	v.SetDefault("state_dir", filepath.Join(xdgState, "eds-schedule"))
	v.SetDefault("ics_dir", filepath.Join(xdgData, "eds-schedule", "calendars"))

	backend := strings.ToLower(strings.TrimSpace(v.GetString("backend")))
	switch backend {
	case BackendEDS, BackendICS, BackendCalDAV:
	default:
		backend = BackendEDS
	}

	timeFormat, _ := schedule.ParseTimeFormat(strings.ToLower(strings.TrimSpace(v.GetString("time_format"))))

	logLevel, err := log.ParseLevel(v.GetString("log_level"))
	if err != nil {
		logLevel = log.LevelInfo
	}

	timeoutSeconds := v.GetInt("timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	previewCount := v.GetInt("preview_count")
	if previewCount < 1 {
		previewCount = 1
	}
	if previewCount > maxPreviewCount {
		previewCount = maxPreviewCount
	}

	agendaDays := v.GetInt("agenda_days")
	if agendaDays <= 0 {
		agendaDays = defaultAgendaDays
	}

	stateDir := strings.TrimSpace(v.GetString("state_dir"))
	if stateDir == "" {
		stateDir = filepath.Join(xdgState, "eds-schedule")
	}

	icsDir := strings.TrimSpace(v.GetString("ics_dir"))
	if icsDir == "" {
		icsDir = filepath.Join(xdgData, "eds-schedule", "calendars")
	}

	return Runtime{
		ConfigFile:     configFile,
		Backend:        backend,
		TimeFormat:     timeFormat,
		LogLevel:       logLevel,
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		PreviewCount:   previewCount,
		AgendaDays:     agendaDays,
		StateDir:       stateDir,
		SessionPath:    filepath.Join(stateDir, "session.json"),
		ICSDir:         icsDir,
		CalDAVURL:      strings.TrimSpace(v.GetString("caldav_url")),
		CalDAVUsername: strings.TrimSpace(v.GetString("caldav_username")),
		CalDAVPassword: v.GetString("caldav_password"),
	}, nil
}

func xdgDir(envKey, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
		return value
	}
	return fallback
}

// loadEnvFile exports KEY=VALUE lines from path without overriding variables
// already set. A missing file is fine.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
