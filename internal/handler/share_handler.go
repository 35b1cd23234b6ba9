package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/service"
)

type ShareHandler struct {
	auth         *auth.Authenticator
	shareService *service.ShareService
}

func NewShareHandler(a *auth.Authenticator, shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{auth: a, shareService: shareService}
}

// ShareFile handles POST /api/files/{uuid}/share with {"email": "..."}.
func (h *ShareHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondMessage(w, http.StatusBadRequest, "recipient email is required")
		return
	}

	if err := h.shareService.Share(r.Context(), userID, fileUUID, req.Email); err != nil {
		log.Printf("Share failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "file shared")
}
