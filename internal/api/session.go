package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danzastock/danzastock/internal/auth"
)

// SessionHandler handles anonymous session endpoints.
type SessionHandler struct {
	Secret string
	TTL    time.Duration
}

type sessionResponse struct {
	Token string `json:"token"`
}

// Create handles POST /api/session. Access is anonymous and shared: any
// client gets a session token just by asking.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateSessionToken(h.Secret, h.TTL)
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	jsonResponse(w, http.StatusCreated, sessionResponse{Token: token})
}
