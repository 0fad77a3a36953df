package journey

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"barrierfree.app/internal/facility"
	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/upstream"
)

type fakeRoutes struct {
	route *models.RouteSummary
	err   error
}

func (f *fakeRoutes) ShortestRoute(context.Context, string, string, time.Time) (*models.RouteSummary, error) {
	return f.route, f.err
}

type fakeFacilities struct {
	quickExit  facility.Result[models.QuickExitEntry]
	elevators  facility.Result[models.FacilityRow]
	elevatorQs []facility.Query
}

func (f *fakeFacilities) QuickExit(context.Context, string) facility.Result[models.QuickExitEntry] {
	return f.quickExit
}

func (f *fakeFacilities) Elevators(_ context.Context, q facility.Query) facility.Result[models.FacilityRow] {
	f.elevatorQs = append(f.elevatorQs, q)
	return f.elevators
}

func newComposer(routes RouteSource, facilities FacilitySource) *Composer {
	return NewComposer(routes, facilities, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func twoLegRoute() *models.RouteSummary {
	return &models.RouteSummary{
		TotalTime:     8,
		TotalDistance: 2600,
		Transfers:     1,
		Paths: []models.PathSegment{
			{From: "서울", To: "시청", Line: "1호선", Time: 2, Distance: 1100},
			{From: "시청", To: "시청", Line: "2호선", Time: 6, Distance: 1500, Transfer: true},
		},
	}
}

func elevators(statuses ...string) []models.FacilityRow {
	rows := make([]models.FacilityRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, models.FacilityRow{StationName: "시청", Kind: models.KindElevator, Status: s})
	}
	return rows
}

func TestComposeEndToEnd(t *testing.T) {
	facilities := &fakeFacilities{
		quickExit: facility.Result[models.QuickExitEntry]{Rows: []models.QuickExitEntry{{StationName: "시청", DoorNumber: "3-2"}}},
		elevators: facility.Result[models.FacilityRow]{Rows: elevators("사용가능", "사용가능")},
	}
	c := newComposer(&fakeRoutes{route: twoLegRoute()}, facilities)

	before, _ := metrics.CounterValue(metrics.WheelchairVerdicts, string(models.WheelchairOK))
	resp, err := c.Compose(context.Background(), Request{Departure: "서울", Arrival: "시청", Wheelchair: true})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if resp.Transfers != 1 || len(resp.Paths) != 2 || resp.WheelchairStatus != models.WheelchairOK {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.ArrivalInfo.QuickExit) != 1 || len(resp.ArrivalInfo.Facilities) != 2 || resp.ArrivalInfo.Errors != nil {
		t.Errorf("unexpected arrival info %+v", resp.ArrivalInfo)
	}
	if len(facilities.elevatorQs) != 1 || facilities.elevatorQs[0].StationName != "시청" {
		t.Errorf("expected elevators queried for the arrival station, got %+v", facilities.elevatorQs)
	}
	after, _ := metrics.CounterValue(metrics.WheelchairVerdicts, string(models.WheelchairOK))
	if after-before != 1 {
		t.Errorf("expected one OK verdict counted, got %v", after-before)
	}
}

func TestComposeRouteFailure(t *testing.T) {
	facilities := &fakeFacilities{
		quickExit: facility.Result[models.QuickExitEntry]{Rows: []models.QuickExitEntry{{DoorNumber: "1-1"}}},
		elevators: facility.Result[models.FacilityRow]{Rows: elevators("사용가능")},
	}
	upstreamErr := &upstream.StatusError{Feed: "route", StatusCode: 500}

	tests := []struct {
		name   string
		routes *fakeRoutes
	}{
		{"upstream error", &fakeRoutes{err: upstreamErr}},
		{"nil route", &fakeRoutes{}},
		{"nil paths", &fakeRoutes{route: &models.RouteSummary{TotalTime: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newComposer(tt.routes, facilities).Compose(context.Background(), Request{Departure: "서울", Arrival: "시청", Wheelchair: true})
			if resp != nil {
				t.Errorf("expected no partial response, got %+v", resp)
			}
			if !errors.Is(err, ErrInvalidRoute) || err.Error() != "Invalid route data" {
				t.Errorf("expected invalid route error, got %v", err)
			}
			if tt.routes.err != nil && !errors.Is(err, upstreamErr) {
				t.Errorf("expected the cause to be kept, got %v", err)
			}
		})
	}
}

func TestComposeSoftDegradation(t *testing.T) {
	facilities := &fakeFacilities{
		quickExit: facility.Result[models.QuickExitEntry]{Rows: []models.QuickExitEntry{}, Err: errors.New("quick exit feed down")},
		elevators: facility.Result[models.FacilityRow]{Err: errors.New("elevator feed down")},
	}
	c := newComposer(&fakeRoutes{route: twoLegRoute()}, facilities)

	resp, err := c.Compose(context.Background(), Request{Departure: "서울", Arrival: "시청"})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if resp.ArrivalInfo.QuickExit == nil || len(resp.ArrivalInfo.QuickExit) != 0 {
		t.Errorf("expected empty quick exit, got %#v", resp.ArrivalInfo.QuickExit)
	}
	if resp.ArrivalInfo.Facilities == nil || len(resp.Paths) != 2 {
		t.Errorf("expected paths and empty facilities, got %+v", resp)
	}
	if resp.ArrivalInfo.Errors[facility.FeedQuickExit] != "quick exit feed down" || resp.ArrivalInfo.Errors["elevator"] != "elevator feed down" {
		t.Errorf("unexpected errors map %v", resp.ArrivalInfo.Errors)
	}
	if resp.WheelchairStatus != "" {
		t.Errorf("expected no wheelchair status without the flag, got %q", resp.WheelchairStatus)
	}
}
