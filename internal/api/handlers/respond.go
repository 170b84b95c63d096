package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeServiceError maps a service error onto its HTTP status. Unclassified
// errors are logged and reported as 500 without leaking the cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrBadRequest),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	detail := err.Error()
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		detail = svcErr.Detail
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeError(w, status, detail)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt64 parses an optional integer query parameter. It returns nil
// when the parameter is absent.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
