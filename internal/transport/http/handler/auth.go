package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-notes-api/internal/application/auth"
	"github.com/go-notes-api/internal/domain"
	"github.com/go-notes-api/internal/pkg/validate"
	"github.com/go-notes-api/internal/transport/http/middleware"
)

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		// Validator detail (field names, tag names) stays server-side.
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Msg:   "User registered successfully",
		Token: result.Token,
		User:  toPublicUser(result.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		// Validation failures read the same as a credential mismatch so the
		// endpoint never confirms whether an email shape is registered.
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Msg:   "Logged in successfully",
		Token: result.Token,
		User:  toPublicUser(result.User),
	})
}

// Me returns the authenticated user's public profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization denied")
		return
	}
	u, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicUser(u))
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Msg:   "Logged in successfully",
		Token: result.Token,
		User:  toPublicUser(result.User),
	})
}
