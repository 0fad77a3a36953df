package app

import (
	"log/slog"
	"net/http"

	"barrierfree.app/internal/config"
	"barrierfree.app/internal/facility"
	"barrierfree.app/internal/journey"
	"barrierfree.app/internal/route"
	"barrierfree.app/internal/station"
	"barrierfree.app/internal/upstream"
)

// Application represents the main application structure.
// It holds the configuration service, the upstream fetcher, the aggregators,
// the route fetcher and the composer, plus the logger and version.
// Everything is wired here once; handlers only read from it.
type Application struct {
	ConfigService *config.ConfigService
	Fetcher       *upstream.Fetcher
	Facilities    *facility.Service
	RouteFetcher  *route.Fetcher
	Composer      *journey.Composer
	Directory     *station.Directory
	LocalRows     *facility.LocalStore
	Logger        *slog.Logger
	Version       string
}

// New creates and wires all dependencies for the Application.
// dir and local may be nil when no station directory or local rows are bundled.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, dir *station.Directory, local *facility.LocalStore, version string) *Application {
	if local == nil {
		local = facility.NewLocalStore()
	}

	fetcher := upstream.NewFetcher(client, cfg, logger, upstream.NewBackoffStore())
	facilities := facility.NewService(fetcher, local, dir, logger)
	routes := route.NewFetcher(fetcher, logger)

	return &Application{
		ConfigService: config.NewConfigService(logger, cfg),
		Fetcher:       fetcher,
		Facilities:    facilities,
		RouteFetcher:  routes,
		Composer:      journey.NewComposer(routes, facilities, logger),
		Directory:     dir,
		LocalRows:     local,
		Logger:        logger,
		Version:       version,
	}
}

// ReloadLocalRows re-reads the local rows asset named by cfg. It is the
// config reload hook; a failed read keeps the rows already loaded.
func (app *Application) ReloadLocalRows(cfg *config.Config) {
	path := cfg.LocalRowsPath()
	if path == "" {
		return
	}
	if err := app.LocalRows.Load(path); err != nil {
		app.Logger.Error("Failed to reload local rows", "path", path, "error", err)
		return
	}
	app.Logger.Info("Reloaded local rows", "path", path)
}
