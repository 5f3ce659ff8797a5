package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "cwhub/internal/errors"
	"cwhub/internal/roster"
	"cwhub/internal/services"
	"cwhub/internal/store"
)

var validate = validator.New()

type assignmentHandler struct {
	service *services.AssignmentService
	store   *store.Store
	logger  *slog.Logger
}

func newAssignmentHandler(service *services.AssignmentService, st *store.Store, logger *slog.Logger) *assignmentHandler {
	return &assignmentHandler{
		service: service,
		store:   st,
		logger:  logger.With(slog.String("component", "assignment_handler")),
	}
}

// List returns how every entity in history currently resolves. Filter with
// ?status=needs_assignment to get only the triage bucket.
func (h *assignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	assignments := h.service.List(r.Context())

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := assignments[:0]
		for _, a := range assignments {
			if string(a.Status) == status {
				filtered = append(filtered, a)
			}
		}
		assignments = filtered
	}

	render.JSON(w, r, map[string]interface{}{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// Overrides returns the persisted override list.
func (h *assignmentHandler) Overrides(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"overrides": h.service.Overrides(),
	})
}

type overrideRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Team        string `json:"team" validate:"required"`
}

// entityKeyParam extracts and unescapes the entity key path segment.
// Entity keys contain spaces, so the segment arrives percent-encoded.
func entityKeyParam(r *http.Request) string {
	raw := chi.URLParam(r, "entityKey")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

// Put pins an entity to a team, or dismisses it when team is "Dismissed".
// The path entity key must match the key derived from the display name.
func (h *assignmentHandler) Put(w http.ResponseWriter, r *http.Request) {
	entityKey := entityKeyParam(r)

	var req overrideRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if roster.EntityKey(req.DisplayName) != entityKey {
		render.Render(w, r, apierrors.New(http.StatusBadRequest, "KEY_MISMATCH",
			"display_name does not normalize to the entity key in the path"))
		return
	}

	override, err := h.service.Assign(r.Context(), req.DisplayName, req.Team)
	if err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	render.JSON(w, r, override)
}

// Delete clears the override for an entity key.
func (h *assignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entityKey := entityKeyParam(r)
	if err := h.service.Clear(r.Context(), entityKey); err != nil {
		render.Render(w, r, apierrors.NotFoundError("override"))
		return
	}
	render.JSON(w, r, map[string]string{"status": "cleared", "entity_key": entityKey})
}

// ClearHistory wipes all stored history. Overrides survive; they describe
// identity, not metrics.
func (h *assignmentHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearHistory(r.Context()); err != nil {
		// In-memory clear always took effect; report the durability gap.
		render.JSON(w, r, map[string]interface{}{
			"status":  "cleared",
			"warning": err.Error(),
		})
		return
	}
	render.JSON(w, r, map[string]string{"status": "cleared"})
}
