package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
	"vaultdrive/internal/service"
)

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"file not found", domain.ErrFileNotFound, http.StatusNotFound},
		{"recipient not found", domain.ErrRecipientNotFound, http.StatusNotFound},
		{"access denied", domain.ErrAccessDenied, http.StatusForbidden},
		{"quota exceeded", &domain.QuotaExceededError{UsedBytes: 900, LimitBytes: 1000}, http.StatusRequestEntityTooLarge},
		{"empty file", domain.ErrEmptyFile, http.StatusBadRequest},
		{"unsupported type", domain.ErrUnsupportedType, http.StatusBadRequest},
		{"self share", domain.ErrSelfShare, http.StatusBadRequest},
		{"upload too large", service.ErrFileTooLarge, http.StatusBadRequest},
		{"already shared", domain.ErrAlreadyShared, http.StatusConflict},
		{"duplicate user", repository.ErrDuplicateUser, http.StatusConflict},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"bad token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"locked out", auth.ErrLockedOut, http.StatusTooManyRequests},
		{"decryption failure", domain.ErrDecryptionFailed, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestRespondError_WrappedErrorsStillMap(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, fmt.Errorf("get file: %w", domain.ErrFileNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
