package handlers

import (
	"net/http"

	"github.com/isdelr/weight-tracker-be/internal/auth"
	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// WeightHandler handles HTTP requests for weight records.
type WeightHandler struct {
	service services.WeightServiceProvider
}

// NewWeightHandler creates a new WeightHandler.
func NewWeightHandler(service services.WeightServiceProvider) *WeightHandler {
	return &WeightHandler{service: service}
}

// WeightInput is the body of a create request.
type WeightInput struct {
	Weight *float64 `json:"weight"`
	UserID *int64   `json:"userId"`
}

// WeightUpdate is the body of an update request.
type WeightUpdate struct {
	Weight *float64 `json:"weight"`
}

// caller returns the verified identity placed in the context by auth.Middleware.
func caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		hlog.FromRequest(r).Error().Msg("Could not retrieve identity from context")
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return 0, false
	}
	return id, true
}

// recordKey reads the userId and weightId query parameters; both are required.
func recordKey(w http.ResponseWriter, r *http.Request) (ownerID, weightID int64, ok bool) {
	owner, err := queryInt64(r, "userId")
	if err != nil || owner == nil {
		writeError(w, http.StatusBadRequest, "Bad Request: userId must be an integer")
		return 0, 0, false
	}
	weight, err := queryInt64(r, "weightId")
	if err != nil || weight == nil {
		writeError(w, http.StatusBadRequest, "Bad Request: weightId must be an integer")
		return 0, 0, false
	}
	return *owner, *weight, true
}

// List handles GET /weights?userId=.
func (h *WeightHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	ownerID, err := queryInt64(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: userId must be an integer")
		return
	}

	weights, err := h.service.ListWeights(r.Context(), callerID, ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, weights)
}

// Create handles POST /weights.
func (h *WeightHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	var payload WeightInput
	if err := decodeJSON(r, &payload); err != nil || payload.Weight == nil || payload.UserID == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: weight and userId are required")
		return
	}

	weight, err := h.service.CreateWeight(r.Context(), callerID, *payload.UserID, *payload.Weight)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, weight)
}

// Update handles PUT /weights?userId=&weightId=.
func (h *WeightHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	ownerID, weightID, ok := recordKey(w, r)
	if !ok {
		return
	}
	var payload WeightUpdate
	if err := decodeJSON(r, &payload); err != nil || payload.Weight == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: weight is required")
		return
	}

	weight, err := h.service.UpdateWeight(r.Context(), callerID, ownerID, weightID, *payload.Weight)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, weight)
}

// Delete handles DELETE /weights?userId=&weightId=.
func (h *WeightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	ownerID, weightID, ok := recordKey(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteWeight(r.Context(), callerID, ownerID, weightID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Weight record deleted successfully",
		"userId":   ownerID,
		"weightId": weightID,
	})
}
