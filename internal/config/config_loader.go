package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"barrierfree.app/internal/report"
	"barrierfree.app/internal/upstream"
	"barrierfree.app/internal/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fileConfig mirrors Config for decoding, with feeds kept separate so a
// partial feed entry overrides only the fields it sets.
type fileConfig struct {
	Port             *int                     `yaml:"port"`
	Env              string                   `yaml:"env"`
	APIKey           string                   `yaml:"api_key"`
	RouteAPIKey      string                   `yaml:"route_api_key"`
	BaseURL          string                   `yaml:"base_url"`
	RouteBaseURL     string                   `yaml:"route_base_url"`
	QuickExitBaseURL string                   `yaml:"quick_exit_base_url"`
	UpstreamTimeout  time.Duration            `yaml:"upstream_timeout"`
	StationDirectory string                   `yaml:"station_directory"`
	LocalRows        string                   `yaml:"local_rows"`
	Feeds            map[string]upstream.Feed `yaml:"feeds"`
	SentryDSN        string                   `yaml:"sentry_dsn"`
	AllowedOrigins   []string                 `yaml:"allowed_origins"`
	ReloadInterval   time.Duration            `yaml:"reload_interval"`
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables read through getenv. The result is
// validated.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadConfigFromFile(path, cfg); err != nil {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:  utils.MakeMap("file_path", path),
				Level: sentry.LevelError,
			})
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}
	if getenv != nil {
		if err := applyEnv(cfg, getenv); err != nil {
			return nil, err
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	setString(&cfg.Env, fc.Env)
	setString(&cfg.APIKey, fc.APIKey)
	setString(&cfg.RouteAPIKey, fc.RouteAPIKey)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.RouteBaseURL, fc.RouteBaseURL)
	setString(&cfg.QuickExitBaseURL, fc.QuickExitBaseURL)
	setString(&cfg.StationDirectory, fc.StationDirectory)
	setString(&cfg.LocalRows, fc.LocalRows)
	setString(&cfg.SentryDSN, fc.SentryDSN)
	if fc.UpstreamTimeout > 0 {
		cfg.UpstreamTimeout = fc.UpstreamTimeout
	}
	if fc.ReloadInterval > 0 {
		cfg.ReloadInterval = fc.ReloadInterval
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	for name, override := range fc.Feeds {
		cfg.Feeds[name] = mergeFeed(cfg.Feeds[name], override)
	}
	return nil
}

func mergeFeed(base, override upstream.Feed) upstream.Feed {
	setString(&base.Service, override.Service)
	setString(&base.BaseURL, override.BaseURL)
	setString(&base.APIKey, override.APIKey)
	setString(&base.StationParam, override.StationParam)
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.Style != "" {
		base.Style = override.Style
	}
	if override.PageSize > 0 {
		base.PageSize = override.PageSize
	}
	if override.MaxRows > 0 {
		base.MaxRows = override.MaxRows
	}
	if override.Windows > 0 {
		base.Windows = override.Windows
	}
	if override.Cooldown {
		base.Cooldown = true
	}
	return base
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// applyEnv overlays environment variables. Keys are secrets and are expected
// to come from the environment rather than the file.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	setString(&cfg.Env, getenv("APP_ENV"))
	setString(&cfg.APIKey, getenv("SEOUL_API_KEY"))
	setString(&cfg.RouteAPIKey, getenv("ROUTE_API_KEY"))
	setString(&cfg.BaseURL, getenv("SEOUL_API_BASE_URL"))
	setString(&cfg.RouteBaseURL, getenv("ROUTE_API_BASE_URL"))
	setString(&cfg.QuickExitBaseURL, getenv("QUICK_EXIT_API_BASE_URL"))
	setString(&cfg.StationDirectory, getenv("STATION_DIRECTORY"))
	setString(&cfg.LocalRows, getenv("LOCAL_ROWS"))
	setString(&cfg.SentryDSN, getenv("SENTRY_DSN"))
	if v := getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", v, err)
		}
		cfg.UpstreamTimeout = d
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
	return nil
}

// Validate checks field constraints and every feed definition.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for name, f := range cfg.Feeds {
		if f.Style != upstream.StyleQuery && f.Service == "" {
			return fmt.Errorf("invalid configuration: feed %s needs a service name", name)
		}
	}
	return nil
}
