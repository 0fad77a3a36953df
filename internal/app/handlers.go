package app

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"barrierfree.app/internal/facility"
	"barrierfree.app/internal/journey"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/upstream"
	"barrierfree.app/internal/utils"
)

// HealthStatus is the body of /v1/healthcheck.
//
// Ready is false while no open-data API key is configured: every feed call
// would fail fast with "missing API key", so the instance should not take
// traffic.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Feeds       int    `json:"feeds"`
	Stations    int    `json:"stations"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	cfg := app.ConfigService.Config
	ready := cfg.HasAPIKey()

	status := HealthStatus{
		Status:      "available",
		Environment: cfg.Environment(),
		Version:     app.Version,
		Feeds:       cfg.FeedCount(),
		Stations:    app.Directory.Len(),
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

// journeyHandler composes the route with arrival-station accessibility.
// GET /v1/pathfinder?dep=&arr=&wheelchair=
func (app *Application) journeyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dep, arr := strings.TrimSpace(q.Get("dep")), strings.TrimSpace(q.Get("arr"))
	if dep == "" || arr == "" {
		app.errorResponse(w, r, http.StatusBadRequest, "dep and arr are required")
		return
	}
	wheelchair, err := parseBoolParam(q.Get("wheelchair"))
	if err != nil {
		app.errorResponse(w, r, http.StatusBadRequest, "wheelchair must be true or false")
		return
	}

	resp, err := app.Composer.Compose(r.Context(), journey.Request{
		Departure:  dep,
		Arrival:    arr,
		Wheelchair: wheelchair,
	})
	if err != nil {
		if errors.Is(err, upstream.ErrMissingAPIKey) {
			app.errorResponse(w, r, http.StatusInternalServerError, upstream.ErrMissingAPIKey.Error())
			return
		}
		app.errorResponse(w, r, http.StatusInternalServerError, journey.ErrInvalidRoute.Error())
		return
	}
	app.writeJSON(w, http.StatusOK, resp)
}

// shortestRouteHandler returns the bare route summary.
// GET /v1/shortest-route?dep=&arr=&dateTime=YYYY-MM-DD HH:MM:SS
func (app *Application) shortestRouteHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dep, arr := strings.TrimSpace(q.Get("dep")), strings.TrimSpace(q.Get("arr"))
	if dep == "" || arr == "" {
		app.errorResponse(w, r, http.StatusBadRequest, "dep and arr are required")
		return
	}
	at, err := utils.ParseRequestTime(q.Get("dateTime"), time.Now())
	if err != nil {
		app.errorResponse(w, r, http.StatusBadRequest, "dateTime must look like "+utils.DateTimeLayout)
		return
	}

	summary, err := app.RouteFetcher.ShortestRoute(r.Context(), dep, arr, at)
	if err != nil {
		app.upstreamErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, summary)
}

func (app *Application) quickExitHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := app.requiredParam(w, r, "stationName")
	if !ok {
		return
	}
	res := app.Facilities.QuickExit(r.Context(), name)
	if res.Err != nil {
		app.upstreamErrorResponse(w, r, res.Err)
		return
	}
	app.writeJSON(w, http.StatusOK, res.Rows)
}

var elevatorKinds = map[string]bool{
	models.KindElevator:       true,
	models.KindEscalator:      true,
	models.KindWheelchairLift: true,
}

// elevatorsHandler serves the mixed elevator and escalator feed.
// GET /v1/elevators?stationName=&type=EV|ES|WL&line=
func (app *Application) elevatorsHandler(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))
	if kind != "" && !elevatorKinds[kind] {
		app.errorResponse(w, r, http.StatusBadRequest, "type must be EV, ES or WL")
		return
	}
	app.serveFacilities(w, r, models.FacilityElevator, kind)
}

func (app *Application) toiletsHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFacilities(w, r, models.FacilityToilet, "")
}

func (app *Application) disabledToiletsHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFacilities(w, r, models.FacilityDisabledToilet, "")
}

func (app *Application) wheelchairChargersHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFacilities(w, r, models.FacilityWheelchairCharger, "")
}

// facilitiesHandler serves any facility type by name.
// GET /v1/facilities/:type?stationName=&kind=&line=
func (app *Application) facilitiesHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	t, ok := models.ParseFacilityType(params.ByName("type"))
	if !ok {
		app.errorResponse(w, r, http.StatusNotFound, "unknown facility type "+strconv.Quote(params.ByName("type")))
		return
	}
	app.serveFacilities(w, r, t, strings.TrimSpace(r.URL.Query().Get("kind")))
}

func (app *Application) serveFacilities(w http.ResponseWriter, r *http.Request, t models.FacilityType, kind string) {
	name, ok := app.requiredParam(w, r, "stationName")
	if !ok {
		return
	}
	q := r.URL.Query()
	res := app.Facilities.Facilities(r.Context(), t, facility.Query{
		StationName: name,
		StationCode: strings.TrimSpace(q.Get("stationCode")),
		Kind:        kind,
		Line:        strings.TrimSpace(q.Get("line")),
	})
	if res.Err != nil {
		app.upstreamErrorResponse(w, r, res.Err)
		return
	}
	app.writeJSON(w, http.StatusOK, res.Rows)
}

// noticesHandler serves today's station notices.
// GET /v1/notices?limit=
func (app *Application) noticesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			app.errorResponse(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	res := app.Facilities.Notices(r.Context(), limit)
	if res.Err != nil {
		app.upstreamErrorResponse(w, r, res.Err)
		return
	}
	app.writeJSON(w, http.StatusOK, res.Rows)
}

func (app *Application) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (app *Application) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "the "+r.Method+" method is not supported for this resource")
}
