package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
	"vaultdrive/internal/service"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps the error taxonomy onto HTTP statuses in one place, so
// every handler reports the same way.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrFileNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRecipientNotFound):
		respondMessage(w, http.StatusNotFound, err.Error())

	case errors.Is(err, domain.ErrAccessDenied):
		respondMessage(w, http.StatusForbidden, err.Error())

	case domain.IsQuotaExceeded(err):
		respondMessage(w, http.StatusRequestEntityTooLarge, err.Error())

	case errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrSelfShare),
		errors.Is(err, service.ErrFileTooLarge):
		respondMessage(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrAlreadyShared):
		respondMessage(w, http.StatusConflict, err.Error())

	case errors.Is(err, repository.ErrDuplicateUser):
		respondMessage(w, http.StatusConflict, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		respondMessage(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, auth.ErrLockedOut):
		respondMessage(w, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, domain.ErrDecryptionFailed):
		// Corruption or key mismatch, not a user mistake. Details stay in
		// the server log.
		log.Printf("ERROR: %v", err)
		respondMessage(w, http.StatusInternalServerError, "file could not be decrypted")

	default:
		log.Printf("internal error: %v", err)
		respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
