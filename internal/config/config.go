package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"prism/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultSessionDBName  = "session.db"
	DefaultLogFileName    = "prism.log"
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultEnvFileName    = ".env"

	EnvConfigPath  = "PRISM_CONFIG"
	EnvAPIURL      = "PRISM_API_URL"
	EnvLogLevel    = "PRISM_LOG_LEVEL"
	EnvMetricsAddr = "PRISM_METRICS_ADDR"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Edit           string `toml:"edit"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	Search         string `toml:"search"`
	FilterStatus   string `toml:"filter_status"`
	FilterCategory string `toml:"filter_category"`
	FilterPriority string `toml:"filter_priority"`
	ClearFilters   string `toml:"clear_filters"`
	Refresh        string `toml:"refresh"`
	Chat           string `toml:"chat"`
	NextField      string `toml:"next_field"`
	PrevField      string `toml:"prev_field"`
}

type Config struct {
	APIBaseURL            string  `toml:"api_base_url"`
	SessionDB             string  `toml:"session_db"`
	DefaultFilter         string  `toml:"default_filter"`
	LogPath               string  `toml:"log_path"`
	LogLevel              string  `toml:"log_level"`
	MetricsAddr           string  `toml:"metrics_addr"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RateLimit             float64 `toml:"rate_limit"`
	RateBurst             int     `toml:"rate_burst"`
	Keys                  Keymap  `toml:"keys"`
}

// RequestTimeout is zero when no timeout is configured.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) Filter() task.Status {
	return task.Status(c.DefaultFilter)
}

// ResolveConfigPath returns $PRISM_CONFIG or config.toml under the user's
// config directory.
func ResolveConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "prism", DefaultConfigFileName), nil
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative paths in the file are resolved against
// the config's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

// ApplyEnv overrides cfg from the environment. Values in envFile are used
// when the process environment does not set them; a missing envFile is
// ignored.
func ApplyEnv(cfg *Config, envFile string) error {
	fileEnv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = values
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}

	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIBaseURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if _, err := logrus.ParseLevel(v); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	return nil
}

func (c Config) Validate() error {
	if !c.Filter().Valid() {
		return fmt.Errorf("default_filter %q must be one of all, active, completed", c.DefaultFilter)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.RequestTimeoutSeconds < 0 {
		return errors.New("request_timeout_seconds must not be negative")
	}
	if c.RateBurst < 0 {
		return errors.New("rate_burst must not be negative")
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	if c.SessionDB == "" {
		c.SessionDB = def.SessionDB
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = def.DefaultFilter
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c Config) resolve(dir string) Config {
	if c.SessionDB != "" && !filepath.IsAbs(c.SessionDB) {
		c.SessionDB = filepath.Join(dir, c.SessionDB)
	}
	if c.LogPath != "" && !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	return c
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:    DefaultAPIBaseURL,
		SessionDB:     DefaultSessionDBName,
		DefaultFilter: string(task.StatusAll),
		LogPath:       DefaultLogFileName,
		LogLevel:      logrus.InfoLevel.String(),
		RateBurst:     1,
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Edit:           "e",
			Confirm:        "enter",
			Cancel:         "esc",
			Search:         "/",
			FilterStatus:   "s",
			FilterCategory: "c",
			FilterPriority: "p",
			ClearFilters:   "x",
			Refresh:        "r",
			Chat:           "?",
			NextField:      "tab",
			PrevField:      "shift+tab",
		},
	}
}

// Fields summarises the effective settings for the log.
func (c Config) Fields() logrus.Fields {
	return logrus.Fields{
		"api_base_url":    c.APIBaseURL,
		"session_db":      c.SessionDB,
		"default_filter":  c.DefaultFilter,
		"log_level":       c.LogLevel,
		"metrics_addr":    c.MetricsAddr,
		"request_timeout": c.RequestTimeout().String(),
		"rate_limit":      c.RateLimit,
	}
}
