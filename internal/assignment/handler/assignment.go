package handler

import (
	"context"
	"errors"
	"net/http"

	"dispatch/internal/assignment"
	bookingserrors "dispatch/internal/bookings/errors"
	"dispatch/internal/guard"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	httputil "dispatch/pkg/http"
	"dispatch/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type StageRequest struct {
	TechnicianID string `json:"technicianId"`
}

// ConfirmRequest answers the confirmation prompt. When TechnicianID is set
// it must match the technician the prompt named.
type ConfirmRequest struct {
	Confirmed    bool   `json:"confirmed"`
	TechnicianID string `json:"technicianId,omitempty"`
}

type AssignmentHandler struct {
	registry *assignment.Registry
	log      *logger.Logger
}

func NewAssignmentHandler(registry *assignment.Registry, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		registry: registry,
		log:      log,
	}
}

func (h *AssignmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings/id/:id/assignment", h.Open)
	router.DELETE("/api/v1/bookings/id/:id/assignment", h.Close)
	router.POST("/api/v1/bookings/id/:id/assignment/stage", h.Stage)
	router.POST("/api/v1/bookings/id/:id/assignment/confirm", h.Confirm)
}

func (h *AssignmentHandler) Open(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wf, err := h.workflow(r, ps.ByName("id"), true)
	if err != nil {
		h.writeError(w, "Open", err)
		return
	}

	if err := httputil.WriteSuccess(w, wf.View()); err != nil {
		h.log.Error("failed to write success response", "handler", "Open", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) Close(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := guard.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Close", apperrors.Unauthorized("Sign in required"))
		return
	}

	h.registry.Close(principal.Session.ID, ps.ByName("id"))
	httputil.WriteNoContent(w)
}

func (h *AssignmentHandler) Stage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req StageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Stage", err)
		return
	}

	wf, err := h.workflow(r, ps.ByName("id"), false)
	if err != nil {
		h.writeError(w, "Stage", err)
		return
	}

	view, err := wf.Stage(req.TechnicianID)
	if err != nil {
		h.writeError(w, "Stage", h.mapError(err))
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Stage", "operation", "WriteSuccess", "error", err)
	}
}

// Confirm runs the assignment. Write failures are reported in the returned
// view's message, not as an HTTP error.
func (h *AssignmentHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req ConfirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	wf, err := h.workflow(r, ps.ByName("id"), false)
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	result := wf.Confirm(r.Context(), func(_ context.Context, prompt assignment.Prompt) bool {
		if req.TechnicianID != "" && req.TechnicianID != prompt.TechnicianID {
			return false
		}
		return req.Confirmed
	})

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "operation", "WriteSuccess", "error", err)
	}
}

// workflow resolves the caller's workflow. reload re-reads the booking and
// technicians into an already open one.
func (h *AssignmentHandler) workflow(r *http.Request, bookingID string, reload bool) (*assignment.Workflow, error) {
	principal, ok := guard.PrincipalFrom(r.Context())
	if !ok {
		return nil, apperrors.Unauthorized("Sign in required")
	}

	open := h.registry.Resume
	if reload {
		open = h.registry.Open
	}
	wf, err := open(r.Context(), principal.Session, bookingID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return wf, nil
}

func (h *AssignmentHandler) mapError(err error) error {
	var loadErr *assignment.LoadError
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFound("Booking")
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID")
	case errors.Is(err, assignment.ErrNotEligible):
		return apperrors.InvalidInput("Technician is not eligible for assignment")
	case errors.Is(err, assignment.ErrClosed):
		return apperrors.Conflict("Assignment was closed. Reload the booking to continue.")
	case errors.As(err, &loadErr):
		h.log.Error("Failed to open assignment", "thing", loadErr.Thing, "error", err)
		return mongodb.LoadError(loadErr.Thing, err)
	default:
		h.log.Error("Assignment request failed", "error", err)
		return apperrors.Internal("Failed to load booking. Please refresh to try again.", err)
	}
}

func (h *AssignmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
