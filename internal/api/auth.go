package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aoyagi/manabi/internal/authgw"
)

// AuthHandler exposes the external identity provider through the local
// API so frontends never hold provider credentials themselves.
type AuthHandler struct {
	gw *authgw.Client
}

// NewAuthHandler creates an AuthHandler backed by the given provider client.
func NewAuthHandler(gw *authgw.Client) *AuthHandler {
	return &AuthHandler{gw: gw}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !validBody(w, r, &req) {
		return
	}
	user, err := h.gw.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !validBody(w, r, &req) {
		return
	}
	session, err := h.gw.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// SignOut handles POST /api/auth/signout. The provider access token
// comes from the Authorization header.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing bearer token"))
		return
	}
	if err := h.gw.SignOut(r.Context(), token); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !validBody(w, r, &req) {
		return
	}
	if err := h.gw.ResetPassword(r.Context(), req.Email); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// RestoreSession handles POST /api/auth/session. A failed restore is
// not an error: the client starts logged out and the session is null.
func (h *AuthHandler) RestoreSession(w http.ResponseWriter, r *http.Request) {
	var req RestoreSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.gw.RestoreSession(r.Context(), req.RefreshToken)
	if err != nil {
		// RestoreSession swallows provider failures; anything left is local.
		slog.Error("restore session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// writeAuthError maps a provider error to an HTTP status plus the
// user-facing Japanese message.
func writeAuthError(w http.ResponseWriter, err error) {
	var ae *authgw.Error
	if !errors.As(err, &ae) {
		slog.Error("auth request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("auth provider unavailable"))
		return
	}

	status := http.StatusBadRequest
	switch ae.Code {
	case authgw.CodeInvalidCredentials, authgw.CodeEmailNotConfirmed:
		status = http.StatusUnauthorized
	case authgw.CodeUserAlreadyExists:
		status = http.StatusConflict
	case authgw.CodeUnknown:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{
		"error":   string(ae.Code),
		"message": ae.UserMessage(),
	})
}
