package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-notes-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Msg string `json:"msg"`
}

// PublicUser is the subset of a user identity that may reach clients.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthEnvelope wraps register/login responses.
type AuthEnvelope struct {
	Msg   string      `json:"msg"`
	Token string      `json:"token"`
	User  *PublicUser `json:"user"`
}

// SummaryEnvelope wraps summarization responses.
type SummaryEnvelope struct {
	Summary string `json:"summary"`
}

// AttachmentURLEnvelope wraps presigned download links.
type AttachmentURLEnvelope struct {
	URL string `json:"url"`
}

func toPublicUser(u *domain.User) *PublicUser {
	return &PublicUser{ID: u.UserID, Email: u.Email}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Msg: msg})
}

// writeDomainError maps sentinel errors to status codes and stable client
// messages. Anything unrecognised is a server problem: the detail goes to
// the log only, the client sees a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "authorization denied")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Bad request")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
