package handler

import (
	"log"
	"net/http"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/service"
)

type QuotaHandler struct {
	auth         *auth.Authenticator
	quotaService *service.QuotaService
}

func NewQuotaHandler(a *auth.Authenticator, quotaService *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{auth: a, quotaService: quotaService}
}

// GetQuotaInfo handles GET /api/quota.
func (h *QuotaHandler) GetQuotaInfo(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	info, err := h.quotaService.GetQuotaInfo(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to get quota info for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}
