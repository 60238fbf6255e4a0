package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/waste-watch/internal/usecase"
)

// AdminHandler handles the profile and allowlist lookups of the dashboard.
type AdminHandler struct {
	gate   *usecase.SessionGate
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(gate *usecase.SessionGate, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{gate: gate, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetUserProfile handles requests for a user's profile.
// GET /api/users/{id}
func (h *AdminHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	if uid == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	profile, err := h.gate.UserProfile(r.Context(), uid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, profile)
}

// CheckAdmin reports whether an email is on the allowlist.
// GET /api/admins/{email}
func (h *AdminHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	isAdmin, err := h.gate.IsAdmin(r.Context(), email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"email":    email,
		"is_admin": isAdmin,
	})
}
