package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Source backends.
const (
	SourceGoogle = "google"
	SourceICS    = "ics"
)

// Token stores.
const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

// Config holds all configuration for idlecal
type Config struct {
	// Idle detection
	IdleThreshold     time.Duration `yaml:"idle_threshold" env:"IDLECAL_IDLE_THRESHOLD"`
	CheckInterval     time.Duration `yaml:"check_interval" env:"IDLECAL_CHECK_INTERVAL"`
	ActivityThreshold time.Duration `yaml:"activity_threshold"`
	MenuGrace         time.Duration `yaml:"menu_grace"`
	IdleCommand       string        `yaml:"idle_command" env:"IDLECAL_IDLE_COMMAND"`

	// Calendar refresh
	Refresh      string        `yaml:"refresh" env:"IDLECAL_REFRESH"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"IDLECAL_FETCH_TIMEOUT"`
	MaxEvents    int           `yaml:"max_events"`
	AgendaSize   int           `yaml:"agenda_size"`

	// Calendar source
	Source     string `yaml:"source" env:"IDLECAL_SOURCE"`
	CalendarID string `yaml:"calendar_id" env:"IDLECAL_CALENDAR_ID"`
	ICSURL     string `yaml:"ics_url" env:"IDLECAL_ICS_URL"`

	// Credentials
	TokenStore string `yaml:"token_store" env:"IDLECAL_TOKEN_STORE"`
	TokenFile  string `yaml:"token_file" env:"IDLECAL_TOKEN_FILE"`

	// Menu actions
	SnoozeOptions    []time.Duration `yaml:"snooze_options"`
	PostponeFallback time.Duration   `yaml:"postpone_fallback"`

	// Presentation
	TimeFormat string `yaml:"time_format"`

	// Logging
	Verbose   bool   `yaml:"verbose" env:"IDLECAL_VERBOSE"`
	LogFormat string `yaml:"log_format" env:"IDLECAL_LOG_FORMAT"`

	// path the configuration was read from, used to resolve relative files
	path string `yaml:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IdleThreshold:     10 * time.Second,
		CheckInterval:     2 * time.Second,
		ActivityThreshold: 1 * time.Second,
		MenuGrace:         3 * time.Second,
		Refresh:           "@every 15m",
		FetchTimeout:      10 * time.Second,
		MaxEvents:         10,
		AgendaSize:        5,
		Source:            SourceGoogle,
		CalendarID:        "primary",
		TokenStore:        TokenStoreFile,
		SnoozeOptions: []time.Duration{
			5 * time.Minute,
			15 * time.Minute,
			30 * time.Minute,
		},
		PostponeFallback: 1 * time.Hour,
		TimeFormat:       "15:04",
		LogFormat:        "text",
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.path = configPath
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Path returns the config file path that was consulted, if any.
func (c *Config) Path() string {
	return c.path
}

// ResolveTokenFile returns the token file path. A relative or empty
// token_file is resolved against the config file's directory.
func (c *Config) ResolveTokenFile() string {
	name := c.TokenFile
	if name == "" {
		name = "token.json"
	}
	if filepath.IsAbs(name) || c.path == "" {
		return name
	}
	return filepath.Join(filepath.Dir(c.path), name)
}

// RefreshSchedule parses the refresh spec.
func (c *Config) RefreshSchedule() (cron.Schedule, error) {
	return cron.ParseStandard(c.Refresh)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("IDLECAL_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "idlecal", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "idlecal", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var, flag or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"IDLECAL_IDLE_THRESHOLD", &cfg.IdleThreshold},
		{"IDLECAL_CHECK_INTERVAL", &cfg.CheckInterval},
		{"IDLECAL_FETCH_TIMEOUT", &cfg.FetchTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("IDLECAL_IDLE_COMMAND"); v != "" {
		cfg.IdleCommand = v
	}
	if v := os.Getenv("IDLECAL_REFRESH"); v != "" {
		cfg.Refresh = v
	}
	if v := os.Getenv("IDLECAL_SOURCE"); v != "" {
		cfg.Source = strings.ToLower(v)
	}
	if v := os.Getenv("IDLECAL_CALENDAR_ID"); v != "" {
		cfg.CalendarID = v
	}
	if v := os.Getenv("IDLECAL_ICS_URL"); v != "" {
		cfg.ICSURL = v
	}
	if v := os.Getenv("IDLECAL_TOKEN_STORE"); v != "" {
		cfg.TokenStore = strings.ToLower(v)
	}
	if v := os.Getenv("IDLECAL_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv("IDLECAL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if verbose := os.Getenv("IDLECAL_VERBOSE"); verbose != "" {
		switch verbose {
		case "true", "1", "yes":
			cfg.Verbose = true
		case "false", "0", "no":
			cfg.Verbose = false
		default:
			return fmt.Errorf("invalid IDLECAL_VERBOSE value: %q (use true/false)", verbose)
		}
	}

	if snooze := os.Getenv("IDLECAL_SNOOZE_OPTIONS"); snooze != "" {
		var options []time.Duration
		for _, part := range strings.Split(snooze, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := parseMinutesOrDuration(part)
			if err != nil {
				return fmt.Errorf("invalid IDLECAL_SNOOZE_OPTIONS entry %q: %w", part, err)
			}
			options = append(options, d)
		}
		cfg.SnoozeOptions = options
	}

	return nil
}

// parseMinutesOrDuration accepts "15" (minutes) or a Go duration ("15m").
func parseMinutesOrDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.IdleThreshold <= 0 {
		return fmt.Errorf("idle_threshold must be positive")
	}

	if cfg.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}

	if cfg.ActivityThreshold < 0 || cfg.ActivityThreshold >= cfg.IdleThreshold {
		return fmt.Errorf("activity_threshold must be non-negative and below idle_threshold")
	}

	if cfg.MenuGrace < 0 {
		return fmt.Errorf("menu_grace must be non-negative")
	}

	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be non-negative")
	}

	if cfg.MaxEvents <= 0 {
		return fmt.Errorf("max_events must be positive")
	}

	if cfg.AgendaSize < 0 {
		return fmt.Errorf("agenda_size must be non-negative")
	}

	if cfg.PostponeFallback <= 0 {
		return fmt.Errorf("postpone_fallback must be positive")
	}

	for _, d := range cfg.SnoozeOptions {
		if d <= 0 {
			return fmt.Errorf("snooze_options must be positive durations")
		}
	}

	if _, err := cfg.RefreshSchedule(); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Refresh, err)
	}

	switch cfg.Source {
	case SourceGoogle:
		if cfg.CalendarID == "" {
			return fmt.Errorf("calendar_id is required for the google source")
		}
	case SourceICS:
		if cfg.ICSURL == "" {
			return fmt.Errorf("ics_url is required for the ics source")
		}
	default:
		return fmt.Errorf("unknown source %q (use %s or %s)", cfg.Source, SourceGoogle, SourceICS)
	}

	switch cfg.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return fmt.Errorf("unknown token_store %q (use %s or %s)", cfg.TokenStore, TokenStoreFile, TokenStoreKeyring)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (use text or json)", cfg.LogFormat)
	}

	return nil
}
