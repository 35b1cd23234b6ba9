package handler

import (
	"log"
	"net/http"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/service"
)

type TrashHandler struct {
	auth        *auth.Authenticator
	fileService *service.FileService
}

func NewTrashHandler(a *auth.Authenticator, fileService *service.FileService) *TrashHandler {
	return &TrashHandler{auth: a, fileService: fileService}
}

// GetTrashItems handles GET /api/trash, listing binned files the caller
// still has rights on.
func (h *TrashHandler) GetTrashItems(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.fileService.ListBin(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to get trash items for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, files)
}

// EmptyTrash handles POST /api/trash/empty. Purges every binned file the
// caller owns.
func (h *TrashHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.fileService.EmptyTrash(r.Context(), userID); err != nil {
		log.Printf("Failed to empty trash for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "trash emptied")
}
