package config

import (
	"fmt"
	"sync"
	"time"

	"barrierfree.app/internal/upstream"
	"barrierfree.app/internal/utils"
)

// Feed names with their own base URL and key.
const (
	FeedRoute     = "route"
	FeedQuickExit = "quick_exit"
)

// Config holds all the configuration settings for our application.
// Keys, URLs and feeds can change on reload; use the accessor methods from
// request paths.
type Config struct {
	Port             int                      `yaml:"port" validate:"gte=0,lte=65535"`
	Env              string                   `yaml:"env" validate:"omitempty,oneof=development staging production test"`
	APIKey           string                   `yaml:"api_key"`
	RouteAPIKey      string                   `yaml:"route_api_key"`
	BaseURL          string                   `yaml:"base_url" validate:"required,url"`
	RouteBaseURL     string                   `yaml:"route_base_url" validate:"required,url"`
	QuickExitBaseURL string                   `yaml:"quick_exit_base_url" validate:"required,url"`
	UpstreamTimeout  time.Duration            `yaml:"upstream_timeout" validate:"gte=0"`
	StationDirectory string                   `yaml:"station_directory"`
	LocalRows        string                   `yaml:"local_rows"`
	Feeds            map[string]upstream.Feed `yaml:"feeds" validate:"dive"`
	SentryDSN        string                   `yaml:"sentry_dsn"`
	AllowedOrigins   []string                 `yaml:"allowed_origins"`
	ReloadInterval   time.Duration            `yaml:"reload_interval" validate:"gte=0"`

	mu sync.RWMutex
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:             4000,
		Env:              "development",
		BaseURL:          "http://openapi.seoul.go.kr:8088",
		RouteBaseURL:     "https://apis.data.go.kr/B553766/smt-path/path",
		QuickExitBaseURL: "https://apis.data.go.kr/B553766/fstexit/getFstExit",
		UpstreamTimeout:  upstream.DefaultTimeout,
		Feeds:            DefaultFeeds(),
		AllowedOrigins:   []string{"*"},
	}
}

// DefaultFeeds describes every upstream dataset. Mixed toilet rows come from
// one service, so toilet and disabled_toilet share it.
func DefaultFeeds() map[string]upstream.Feed {
	return map[string]upstream.Feed{
		"elevator":           {Service: "SeoulMetroFaciInfo", PageSize: 1000, MaxRows: 5000},
		"toilet":             {Service: "TbSeoulmetroStToilet", PageSize: 1000, MaxRows: 3000, Windows: 3},
		"disabled_toilet":    {Service: "TbSeoulmetroStToilet", PageSize: 1000, MaxRows: 3000, Windows: 3},
		"wheelchair_charger": {Service: "TbElecWheelChrCharge", PageSize: 1000, MaxRows: 3000, Windows: 3},
		"nursing_room":       {Service: "TbSeoulmetroStNursingRoom", PageSize: 1000, MaxRows: 2000},
		"locker":             {Service: "TbSeoulmetroStLocker", PageSize: 1000, MaxRows: 5000},
		"wheelchair_lift":    {Service: "TbSeoulmetroStWheelchairLift", PageSize: 1000, MaxRows: 2000},
		"audio_beacon":       {Service: "TbSeoulmetroStAudioBeacon", PageSize: 1000, MaxRows: 5000},
		"notice":             {Service: "TbSeoulmetroNotice", PageSize: 100, MaxRows: 1000},
		FeedQuickExit: {
			Style: upstream.StyleQuery, Format: upstream.FormatJSON,
			PageSize: 1000, MaxRows: 2000, StationParam: "stnNm",
		},
		FeedRoute: {
			Style: upstream.StyleQuery, Format: upstream.FormatXML,
			PageSize: 5, MaxRows: 5,
		},
	}
}

// Update safely replaces the reloadable settings with those of next.
func (cfg *Config) Update(next *Config) {
	next.mu.RLock()
	defer next.mu.RUnlock()
	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	cfg.APIKey = next.APIKey
	cfg.RouteAPIKey = next.RouteAPIKey
	cfg.BaseURL = next.BaseURL
	cfg.RouteBaseURL = next.RouteBaseURL
	cfg.QuickExitBaseURL = next.QuickExitBaseURL
	cfg.UpstreamTimeout = next.UpstreamTimeout
	cfg.LocalRows = next.LocalRows
	cfg.Feeds = make(map[string]upstream.Feed, len(next.Feeds))
	for name, f := range next.Feeds {
		cfg.Feeds[name] = f
	}
}

// Feed returns the named feed with its effective base URL and API key.
// It implements upstream.Settings.
func (cfg *Config) Feed(name string) (upstream.Feed, bool) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	f, ok := cfg.Feeds[name]
	if !ok {
		return upstream.Feed{}, false
	}
	f.Name = name
	switch name {
	case FeedRoute:
		// a route failure already fails its own request; it must not fail others
		f.Cooldown = false
		f.BaseURL = utils.FirstNonEmpty(f.BaseURL, cfg.RouteBaseURL)
		f.APIKey = utils.FirstNonEmpty(f.APIKey, cfg.RouteAPIKey, cfg.APIKey)
	case FeedQuickExit:
		f.BaseURL = utils.FirstNonEmpty(f.BaseURL, cfg.QuickExitBaseURL)
		f.APIKey = utils.FirstNonEmpty(f.APIKey, cfg.RouteAPIKey, cfg.APIKey)
	default:
		f.BaseURL = utils.FirstNonEmpty(f.BaseURL, cfg.BaseURL)
		f.APIKey = utils.FirstNonEmpty(f.APIKey, cfg.APIKey)
	}
	return f.WithDefaults(), true
}

// Timeout is the per-call upstream deadline.
func (cfg *Config) Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	if cfg.UpstreamTimeout <= 0 {
		return upstream.DefaultTimeout
	}
	return cfg.UpstreamTimeout
}

// WorstCaseFetch is the longest a single feed fetch can take: the slowest
// feed's sequential rounds, each bounded by the per-call timeout.
func (cfg *Config) WorstCaseFetch() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = upstream.DefaultTimeout
	}
	rounds := 1
	for _, f := range cfg.Feeds {
		rounds = max(rounds, f.Rounds())
	}
	return time.Duration(rounds) * timeout
}

// HasAPIKey reports whether the open-data key is configured.
func (cfg *Config) HasAPIKey() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.APIKey != ""
}

// FeedCount is the number of configured feeds.
func (cfg *Config) FeedCount() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return len(cfg.Feeds)
}

// Environment returns the deployment environment name.
func (cfg *Config) Environment() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.Env
}

// Origins returns the CORS allow-list. It is read once when routes are built.
func (cfg *Config) Origins() []string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return append([]string(nil), cfg.AllowedOrigins...)
}

// LocalRowsPath returns the current local rows asset path.
func (cfg *Config) LocalRowsPath() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.LocalRows
}

func (cfg *Config) String() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return fmt.Sprintf("env=%s port=%d base_url=%s feeds=%d api_key_set=%t",
		cfg.Env, cfg.Port, cfg.BaseURL, len(cfg.Feeds), cfg.APIKey != "")
}
