package handler

import (
	"net/http"

	"dispatch/internal/technicians/service"
	httputil "dispatch/pkg/http"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TechnicianHandler struct {
	service service.TechnicianService
	log     *logger.Logger
}

func NewTechnicianHandler(service service.TechnicianService, log *logger.Logger) *TechnicianHandler {
	return &TechnicianHandler{
		service: service,
		log:     log,
	}
}

func (h *TechnicianHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/technicians", h.GetAll)
	router.GET("/api/v1/technicians/eligible", h.Eligible)
	router.GET("/api/v1/technicians/id/:id", h.GetByID)
	router.POST("/api/v1/technicians", h.Create)
	router.POST("/api/v1/technicians/id/:id/toggle-active", h.ToggleActive)
	router.POST("/api/v1/technicians/id/:id/toggle-verified", h.ToggleVerified)
}

func (h *TechnicianHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.TechnicianCreate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	technician, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, technician); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TechnicianHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	technician, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, technician); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TechnicianHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	technicians, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteList(w, technicians, len(technicians)); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}

func (h *TechnicianHandler) Eligible(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	options, err := h.service.Eligible(r.Context())
	if err != nil {
		h.writeError(w, "Eligible", err)
		return
	}

	if err := httputil.WriteList(w, options, len(options)); err != nil {
		h.log.Error("failed to write list response", "handler", "Eligible", "operation", "WriteList", "error", err)
	}
}

func (h *TechnicianHandler) ToggleActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	technician, err := h.service.ToggleActive(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ToggleActive", err)
		return
	}

	if err := httputil.WriteSuccess(w, technician); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleActive", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TechnicianHandler) ToggleVerified(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	technician, err := h.service.ToggleVerified(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ToggleVerified", err)
		return
	}

	if err := httputil.WriteSuccess(w, technician); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleVerified", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TechnicianHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
