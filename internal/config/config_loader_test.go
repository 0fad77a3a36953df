package config

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barrierfree.app/internal/upstream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 4000 || cfg.Env != "development" || cfg.Timeout() != upstream.DefaultTimeout {
		t.Errorf("unexpected defaults: %s", cfg)
	}
	if cfg.HasAPIKey() {
		t.Error("expected no API key by default")
	}
	for _, name := range []string{"elevator", "toilet", "disabled_toilet", "wheelchair_charger", "notice", FeedQuickExit, FeedRoute} {
		if _, ok := cfg.Feed(name); !ok {
			t.Errorf("expected default feed %s", name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: staging
api_key: file-key
upstream_timeout: 5s
feeds:
  elevator:
    page_size: 500
  audio_beacon:
    format: xml
    service: SeoulAudioBeacon
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.Env != "staging" || cfg.Timeout() != 5*time.Second {
		t.Errorf("unexpected config: %s", cfg)
	}

	elevator, _ := cfg.Feed("elevator")
	if elevator.PageSize != 500 || elevator.Service != "SeoulMetroFaciInfo" || elevator.MaxRows != 5000 {
		t.Errorf("expected a partial override to keep defaults, got %+v", elevator)
	}
	if elevator.APIKey != "file-key" || elevator.BaseURL != "http://openapi.seoul.go.kr:8088" || elevator.Name != "elevator" {
		t.Errorf("expected resolved key and base URL, got %+v", elevator)
	}

	beacon, _ := cfg.Feed("audio_beacon")
	if beacon.Format != upstream.FormatXML || beacon.Service != "SeoulAudioBeacon" {
		t.Errorf("unexpected audio beacon feed %+v", beacon)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		errPart string
	}{
		{"unknown key", "prot: 80\n", nil, "failed to unmarshal YAML"},
		{"bad env", "", map[string]string{"APP_ENV": "moon"}, "invalid configuration"},
		{"bad port", "", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"bad timeout", "", map[string]string{"UPSTREAM_TIMEOUT": "soon"}, "invalid UPSTREAM_TIMEOUT"},
		{"bad feed format", "feeds:\n  elevator:\n    format: csv\n", nil, "invalid configuration"},
		{"feed without service", "feeds:\n  extra:\n    page_size: 10\n", nil, "needs a service name"},
		{"bad base url", "base_url: not a url\n", nil, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path, envMap(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_key: file-key\nport: 8080\n")
	cfg, err := Load(path, envMap(map[string]string{
		"SEOUL_API_KEY":        "env-key",
		"ROUTE_API_KEY":        "portal-key",
		"PORT":                 "9090",
		"UPSTREAM_TIMEOUT":     "3s",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "env-key" || cfg.Port != 9090 || cfg.Timeout() != 3*time.Second {
		t.Errorf("expected env to win, got %s", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}

	route, _ := cfg.Feed(FeedRoute)
	if route.APIKey != "portal-key" || route.BaseURL != cfg.RouteBaseURL || route.Style != upstream.StyleQuery {
		t.Errorf("unexpected route feed %+v", route)
	}
	quickExit, _ := cfg.Feed(FeedQuickExit)
	if quickExit.APIKey != "portal-key" || quickExit.BaseURL != cfg.QuickExitBaseURL {
		t.Errorf("unexpected quick exit feed %+v", quickExit)
	}
}

func TestRouteKeyFallsBackToAPIKey(t *testing.T) {
	cfg, err := Load("", envMap(map[string]string{"SEOUL_API_KEY": "only-key"}))
	if err != nil {
		t.Fatal(err)
	}
	route, _ := cfg.Feed(FeedRoute)
	if route.APIKey != "only-key" {
		t.Errorf("expected the open-data key as fallback, got %q", route.APIKey)
	}
}

func TestRefreshConfig(t *testing.T) {
	path := writeConfig(t, "api_key: first\n")
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("api_key: second\nfeeds:\n  elevator:\n    page_size: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewConfigService(logger, cfg)
	svc.Getenv = envMap(nil)

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RefreshConfig(ctx, path, 10*time.Millisecond, func(*Config) {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}
	cancel()
	<-done

	elevator, _ := cfg.Feed("elevator")
	if elevator.APIKey != "second" || elevator.PageSize != 10 {
		t.Errorf("expected reloaded settings, got %+v", elevator)
	}
	if !strings.Contains(buf.String(), "Stopping config refresh routine") {
		t.Errorf("expected stop log, got %q", buf.String())
	}
}

func TestRefreshConfigKeepsPreviousOnError(t *testing.T) {
	path := writeConfig(t, "api_key: good\n")
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(path, []byte("env: moon\n"), 0o600)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	refreshConfig(ctx, path, cfg, envMap(nil), slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Millisecond, nil)

	if !cfg.HasAPIKey() || cfg.APIKey != "good" {
		t.Errorf("expected previous config to stay, got %s", cfg)
	}
}

func TestCooldownIsOptInAndNeverForRoutes(t *testing.T) {
	path := writeConfig(t, `
feeds:
  elevator:
    cooldown: true
  route:
    cooldown: true
`)
	cfg, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if f, _ := cfg.Feed("elevator"); !f.Cooldown {
		t.Error("expected elevator to opt in to cooldown")
	}
	if f, _ := cfg.Feed("toilet"); f.Cooldown {
		t.Error("expected cooldown off by default")
	}
	if f, _ := cfg.Feed(FeedRoute); f.Cooldown {
		t.Error("expected the route feed never to cool down")
	}
}

func TestWorstCaseFetchCoversSequentialPaging(t *testing.T) {
	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// notices page 1000 rows 100 at a time
	if got, want := cfg.WorstCaseFetch(), 10*upstream.DefaultTimeout; got != want {
		t.Errorf("WorstCaseFetch = %v, want %v", got, want)
	}

	path := writeConfig(t, `
upstream_timeout: 2s
feeds:
  locker:
    page_size: 100
    max_rows: 2000
`)
	cfg, err = Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := cfg.WorstCaseFetch(), 20*2*time.Second; got != want {
		t.Errorf("WorstCaseFetch = %v, want %v", got, want)
	}
}
