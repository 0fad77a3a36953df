package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"barrierfree.app/internal/middleware"

	"github.com/julienschmidt/httprouter"
)

// Routes sets up the HTTP routing configuration for the application and returns the final http.Handler.
//
// Registered Routes:
//   - GET /v1/healthcheck: readiness snapshot, 500 while no API key is configured.
//   - GET /metrics: cached Prometheus exposition.
//   - GET /v1/pathfinder: route plus arrival-station accessibility, optionally with a wheelchair verdict.
//   - GET /v1/shortest-route: the bare route summary.
//   - GET /v1/quick-exit: deduplicated quick-exit entries for a station.
//   - GET /v1/elevators, /v1/toilets, /v1/disabled-toilets, /v1/wheelchair-chargers:
//     per-type facility lists for a station.
//   - GET /v1/facilities/:type: any facility type by name.
//   - GET /v1/notices: today's station notices.
//
// Middleware, outermost first:
//   - `middleware.SecurityHeaders`
//   - `middleware.CORS`, limited to the configured origins
//   - `middleware.RequestID`, which also scopes a request logger
//   - `middleware.SentryMiddleware`, which captures panics with the request id attached
//
// Usage:
//
//	server := &http.Server{
//	    Addr:    ":4000",
//	    Handler: app.Routes(ctx),
//	}
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(app.notFoundHandler)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedHandler)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	router.HandlerFunc(http.MethodGet, "/v1/pathfinder", app.journeyHandler)
	router.HandlerFunc(http.MethodGet, "/v1/shortest-route", app.shortestRouteHandler)
	router.HandlerFunc(http.MethodGet, "/v1/quick-exit", app.quickExitHandler)
	router.HandlerFunc(http.MethodGet, "/v1/elevators", app.elevatorsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/toilets", app.toiletsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/disabled-toilets", app.disabledToiletsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/wheelchair-chargers", app.wheelchairChargersHandler)
	router.HandlerFunc(http.MethodGet, "/v1/notices", app.noticesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/facilities/:type", app.facilitiesHandler)

	handler := middleware.SentryMiddleware(router)
	handler = middleware.RequestID(app.Logger)(handler)
	handler = middleware.CORS(app.ConfigService.Config.Origins())(handler)
	return middleware.SecurityHeaders(handler)
}
