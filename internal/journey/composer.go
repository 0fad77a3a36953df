package journey

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"barrierfree.app/internal/facility"
	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/report"
)

// ErrInvalidRoute fails a composition whose route is missing or unusable.
var ErrInvalidRoute = errors.New("Invalid route data")

// RouteError carries the route failure behind ErrInvalidRoute.
type RouteError struct {
	Err error
}

func (e *RouteError) Error() string { return ErrInvalidRoute.Error() }

func (e *RouteError) Is(target error) bool { return target == ErrInvalidRoute }

func (e *RouteError) Unwrap() error { return e.Err }

type RouteSource interface {
	ShortestRoute(ctx context.Context, dep, arr string, at time.Time) (*models.RouteSummary, error)
}

type FacilitySource interface {
	QuickExit(ctx context.Context, stationName string) facility.Result[models.QuickExitEntry]
	Elevators(ctx context.Context, q facility.Query) facility.Result[models.FacilityRow]
}

// Request is one journey to compose.
type Request struct {
	Departure  string
	Arrival    string
	Wheelchair bool
	At         time.Time
}

// Composer builds the journey response from the route and the arrival
// station's quick-exit and elevator data.
type Composer struct {
	Routes     RouteSource
	Facilities FacilitySource
	Logger     *slog.Logger
	Now        func() time.Time
}

func NewComposer(routes RouteSource, facilities FacilitySource, logger *slog.Logger) *Composer {
	return &Composer{Routes: routes, Facilities: facilities, Logger: logger, Now: time.Now}
}

// Compose runs the three upstream calls concurrently. The route is the only
// hard dependency: without it the whole composition fails. Quick-exit and
// facility failures leave their lists empty and are named in
// ArrivalInfo.Errors.
func (c *Composer) Compose(ctx context.Context, req Request) (*models.JourneyResponse, error) {
	start := time.Now()
	defer func() {
		metrics.ComposeDuration.Observe(time.Since(start).Seconds())
	}()

	at := req.At
	if at.IsZero() {
		at = c.Now()
	}

	var (
		wg         sync.WaitGroup
		route      *models.RouteSummary
		routeErr   error
		quickExit  facility.Result[models.QuickExitEntry]
		facilities facility.Result[models.FacilityRow]
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		route, routeErr = c.Routes.ShortestRoute(ctx, req.Departure, req.Arrival, at)
	}()
	go func() {
		defer wg.Done()
		quickExit = c.Facilities.QuickExit(ctx, req.Arrival)
	}()
	go func() {
		defer wg.Done()
		facilities = c.Facilities.Elevators(ctx, facility.Query{StationName: req.Arrival})
	}()
	wg.Wait()

	if routeErr != nil || route == nil || route.Paths == nil {
		metrics.ComposeFailures.Inc()
		err := &RouteError{Err: routeErr}
		c.Logger.Error("journey composition failed", "dep", req.Departure, "arr", req.Arrival, "error", routeErr)
		if routeErr != nil {
			report.FeedFailure(routeErr, "route", req.Departure+"->"+req.Arrival)
		}
		return nil, err
	}

	resp := &models.JourneyResponse{
		TotalTime:     route.TotalTime,
		TotalDistance: route.TotalDistance,
		Transfers:     route.Transfers,
		Paths:         route.Paths,
		ArrivalInfo: models.ArrivalInfo{
			QuickExit:  nonNil(quickExit.Rows),
			Facilities: nonNil(facilities.Rows),
		},
	}

	for feed, err := range map[string]error{
		facility.FeedQuickExit:          quickExit.Err,
		string(models.FacilityElevator): facilities.Err,
	} {
		if err == nil {
			continue
		}
		if resp.ArrivalInfo.Errors == nil {
			resp.ArrivalInfo.Errors = make(map[string]string)
		}
		resp.ArrivalInfo.Errors[feed] = err.Error()
		c.Logger.Warn("arrival data degraded", "feed", feed, "station", req.Arrival, "error", err)
	}

	if req.Wheelchair {
		resp.WheelchairStatus = WheelchairStatusFor(resp.ArrivalInfo.Facilities)
		metrics.WheelchairVerdicts.WithLabelValues(string(resp.WheelchairStatus)).Inc()
	}
	return resp, nil
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
