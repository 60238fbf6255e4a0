package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/waste-watch/internal/adapter/api/middleware"
	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/usecase"
)

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	gate    *usecase.SessionGate
	viewers *usecase.ViewerRegistry
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(gate *usecase.SessionGate, viewers *usecase.ViewerRegistry, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, viewers: viewers, logger: logger}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

func (c credentials) validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password are required", errBadRequest)
	}
	return nil
}

type userResponse struct {
	User *domain.Identity `json:"user"`
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.logger, err)
		return
	}

	session, err := h.gate.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, session)
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.logger, err)
		return
	}

	identity, err := h.gate.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, userResponse{User: identity})
}

// SignOut handles POST /api/auth/signout. It always answers 204; a failed
// provider sign-out has already been logged by the gate.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token != "" {
		if session, err := h.gate.ResolveSession(r.Context(), token); err == nil && session != nil {
			h.viewers.Drop(session.ID)
		}
		if err := h.gate.SignOut(r.Context(), token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("sign-out reported an error", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/auth/session. A missing or dead token yields
// {"user": null} rather than an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.CurrentSession(r.Context(), middleware.BearerToken(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, userResponse{User: identity})
}
