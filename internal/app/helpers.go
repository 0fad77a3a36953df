package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"barrierfree.app/internal/middleware"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/upstream"
)

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		app.Logger.Error("Failed to encode response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(js)
}

func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	logger := middleware.LoggerFromContext(r.Context(), app.Logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", message)
	} else {
		logger.Info("request rejected", "path", r.URL.Path, "status", status, "error", message)
	}
	app.writeJSON(w, status, models.ErrorResponse{Error: message})
}

// upstreamErrorResponse maps a feed failure to a status: configuration
// errors are ours (500), anything else is the upstream's (502).
func (app *Application) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, upstream.ErrMissingAPIKey) || errors.Is(err, upstream.ErrUnknownFeed) {
		app.errorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	app.errorResponse(w, r, http.StatusBadGateway, err.Error())
}

// requiredParam returns the trimmed query parameter or writes a 400.
func (app *Application) requiredParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		app.errorResponse(w, r, http.StatusBadRequest, name+" is required")
		return "", false
	}
	return v, true
}

func parseBoolParam(s string) (bool, error) {
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}
