package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/domain"
	"vaultdrive/internal/service"
)

type AuthHandler struct {
	auth  *auth.Authenticator
	audit *service.AuditService
}

func NewAuthHandler(a *auth.Authenticator, audit *service.AuditService) *AuthHandler {
	return &AuthHandler{auth: a, audit: audit}
}

type authResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.Printf("Registration failed for %q: %v", req.Email, err)
		respondError(w, err)
		return
	}

	h.audit.RecordAction(user.ID, domain.ActionRegister, user.Email)

	respondJSON(w, http.StatusCreated, authResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// Me handles GET /api/auth/me, returning the account behind the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.auth.UserByID(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to load user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":            user.ID.String(),
		"username":      user.Username,
		"email":         user.Email,
		"storage_used":  user.StorageUsed,
		"storage_limit": user.StorageLimit,
	})
}

// Login handles POST /api/auth/login. The login field accepts username or
// email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Login, req.Password, auth.ClientIP(r))
	if err != nil {
		log.Printf("Login failed for %q: %v", req.Login, err)
		respondError(w, err)
		return
	}

	h.audit.RecordAction(user.ID, domain.ActionLogin, "")

	respondJSON(w, http.StatusOK, authResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}
