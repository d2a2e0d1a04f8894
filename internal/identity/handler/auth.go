package handler

import (
	"errors"
	"net/http"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/identity/service"
	apperrors "dispatch/pkg/errors"
	httputil "dispatch/pkg/http"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AuthHandler struct {
	provider service.Provider
	log      *logger.Logger
}

func NewAuthHandler(provider service.Provider, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		log:      log,
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/sign-in", h.SignIn)
	router.POST("/api/v1/auth/sign-out", h.SignOut)
	router.GET("/api/v1/auth/session", h.Session)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SignInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SignIn", err)
		return
	}

	sess, token, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		appErr := service.SignInError(err)
		if appErr.Code == apperrors.CodeInternal || appErr.Code == apperrors.CodeUnavailable {
			h.log.Error("Sign-in failed", "error", err)
		}
		h.writeError(w, "SignIn", appErr)
		return
	}

	if err := httputil.WriteSuccess(w, model.SignInResponse{Token: token, Session: sess}); err != nil {
		h.log.Error("failed to write success response", "handler", "SignIn", "operation", "WriteSuccess", "error", err)
	}
}

// SignOut revokes the caller's session. Signing out without a live session
// is not an error.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess, err := h.provider.Authenticate(r.Context(), httputil.BearerToken(r))
	if err != nil {
		if !errors.Is(err, identityerrors.ErrInvalidSession) {
			h.log.Warn("Session lookup failed during sign-out", "error", err)
		}
		httputil.WriteNoContent(w)
		return
	}

	if err := h.provider.SignOut(r.Context(), sess); err != nil {
		h.writeError(w, "SignOut", apperrors.Internal("Failed to sign out. Please try again.", err))
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess, err := h.provider.Authenticate(r.Context(), httputil.BearerToken(r))
	if err != nil {
		if errors.Is(err, identityerrors.ErrInvalidSession) {
			h.writeError(w, "Session", apperrors.Unauthorized("No active session"))
			return
		}
		h.writeError(w, "Session", apperrors.Internal("Failed to check session", err))
		return
	}

	if err := httputil.WriteSuccess(w, sess); err != nil {
		h.log.Error("failed to write success response", "handler", "Session", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
