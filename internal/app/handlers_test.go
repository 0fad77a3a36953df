package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"barrierfree.app/internal/models"
)

func serve(t *testing.T, app *Application, target string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	app.Routes(ctx).ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthcheckHandler(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := httptest.NewRecorder()
	request, err := http.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
	if err != nil {
		t.Fatal(err)
	}
	app.healthcheckHandler(rr, request)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp HealthStatus
	decode(t, rr, &resp)
	if resp.Status != "available" || !resp.Ready {
		t.Errorf("unexpected status %+v", resp)
	}
	if resp.Environment != "test" || resp.Version != "test-version" {
		t.Errorf("unexpected environment or version %+v", resp)
	}
	if resp.Feeds == 0 {
		t.Error("expected configured feeds to be counted")
	}
}

func TestHealthcheckNotReadyWithoutAPIKey(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))
	app.ConfigService.Config.APIKey = ""

	rr := serve(t, app, "/v1/healthcheck")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	var resp HealthStatus
	decode(t, rr, &resp)
	if resp.Ready {
		t.Error("expected ready=false")
	}
}

func TestElevatorsHandler(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	tests := []struct {
		name   string
		target string
		status int
		rows   int
	}{
		{"station filter", "/v1/elevators?stationName=" + url.QueryEscape("시청역"), http.StatusOK, 2},
		{"kind filter", "/v1/elevators?type=es&stationName=" + url.QueryEscape("을지로입구"), http.StatusOK, 1},
		{"kind mismatch", "/v1/elevators?type=EV&stationName=" + url.QueryEscape("을지로입구"), http.StatusOK, 0},
		{"missing station", "/v1/elevators", http.StatusBadRequest, -1},
		{"bad kind", "/v1/elevators?type=XX&stationName=a", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, app, tt.target)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.rows < 0 {
				var resp models.ErrorResponse
				decode(t, rr, &resp)
				if resp.Error == "" {
					t.Error("expected an error message")
				}
				return
			}
			var rows []models.FacilityRow
			decode(t, rr, &rows)
			if len(rows) != tt.rows {
				t.Errorf("expected %d rows, got %d: %+v", tt.rows, len(rows), rows)
			}
		})
	}
}

func TestFacilitiesHandlerUnknownType(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := serve(t, app, "/v1/facilities/teleporter?stationName=a")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestFacilitiesHandlerUpstreamFailure(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := serve(t, app, "/v1/toilets?stationName="+url.QueryEscape("시청"))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestFacilitiesPreferLocalRows(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	path := filepath.Join(t.TempDir(), "local.json")
	body := `{"nursing_room":[{"stationName":"시청","facilityName":"수유실","line":"2호선"}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	app.ConfigService.Config.LocalRows = path
	app.ReloadLocalRows(app.ConfigService.Config)

	rr := serve(t, app, "/v1/facilities/nursing_room?stationName="+url.QueryEscape("시청"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var rows []models.FacilityRow
	decode(t, rr, &rows)
	if len(rows) != 1 || rows[0].FacilityName != "수유실" || rows[0].Type != models.FacilityNursingRoom {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestQuickExitHandler(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := serve(t, app, "/v1/quick-exit?stationName="+url.QueryEscape("시청"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var entries []models.QuickExitEntry
	decode(t, rr, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 entries, got %+v", entries)
	}
	if entries[0].DoorNumber != "3-2" || entries[0].Direction != "외선" {
		t.Errorf("expected last-seen values at first position, got %+v", entries[0])
	}
}

func TestJourneyHandler(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := serve(t, app, "/v1/pathfinder?wheelchair=true&dep="+url.QueryEscape("서울")+"&arr="+url.QueryEscape("시청"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.JourneyResponse
	decode(t, rr, &resp)
	if resp.TotalTime != 8 || resp.Transfers != 1 || len(resp.Paths) != 2 {
		t.Errorf("unexpected route %+v", resp)
	}
	if len(resp.ArrivalInfo.QuickExit) != 2 {
		t.Errorf("expected quick exits, got %+v", resp.ArrivalInfo.QuickExit)
	}
	if len(resp.ArrivalInfo.Facilities) != 2 {
		t.Errorf("expected arrival elevators, got %+v", resp.ArrivalInfo.Facilities)
	}
	if resp.WheelchairStatus != models.WheelchairPartial {
		t.Errorf("expected PARTIAL, got %q", resp.WheelchairStatus)
	}
	if len(resp.ArrivalInfo.Errors) != 0 {
		t.Errorf("expected no feed errors, got %v", resp.ArrivalInfo.Errors)
	}
}

func TestJourneyHandlerErrors(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	tests := []struct {
		name   string
		target string
		status int
		msg    string
	}{
		{"missing arrival", "/v1/pathfinder?dep=a", http.StatusBadRequest, "dep and arr are required"},
		{"bad wheelchair flag", "/v1/pathfinder?dep=a&arr=b&wheelchair=maybe", http.StatusBadRequest, "wheelchair must be true or false"},
		{"no route document", "/v1/pathfinder?dep=" + url.QueryEscape("서울") + "&arr=" + url.QueryEscape("없는역"), http.StatusInternalServerError, "Invalid route data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, app, tt.target)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var resp models.ErrorResponse
			decode(t, rr, &resp)
			if resp.Error != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, resp.Error)
			}
		})
	}
}

func TestShortestRouteHandler(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))

	rr := serve(t, app, "/v1/shortest-route?dep="+url.QueryEscape("서울")+"&arr="+url.QueryEscape("시청")+"&dateTime="+url.QueryEscape("2026-10-15 08:30:00"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary models.RouteSummary
	decode(t, rr, &summary)
	if summary.TotalTime != 8 || summary.Paths[1].Line != "2호선" {
		t.Errorf("unexpected summary %+v", summary)
	}

	rr = serve(t, app, "/v1/shortest-route?dep=a&arr=b&dateTime=tomorrow")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad dateTime, got %d", rr.Code)
	}
}

func TestMissingAPIKeyIsAServerError(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))
	app.ConfigService.Config.APIKey = ""

	rr := serve(t, app, "/v1/elevators?stationName=a")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestRoutesNotFoundAndMethodNotAllowed(t *testing.T) {
	app := newTestApplication(t, newFakeUpstream(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := app.Routes(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/nowhere", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id")
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/healthcheck", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
