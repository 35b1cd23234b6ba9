package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng!pass", false},
		{"too short", "S1!a", true},
		{"no uppercase", "str0ng!pass", true},
		{"no lowercase", "STR0NG!PASS", true},
		{"no digit", "Strong!pass", true},
		{"no special", "Str0ngpass", true},
		{"exactly eight chars", "Ab1!efgh", false},
		{"unicode special counts", "Passw0rdя", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuthenticator(nil, nil, "test-secret")

	user := &domain.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	token, err := a.issueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	issuer := NewAuthenticator(nil, nil, "secret-a")
	verifier := NewAuthenticator(nil, nil, "secret-b")

	token, err := issuer.issueToken(&domain.User{ID: uuid.New(), Username: "alice"})
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongSigningMethod(t *testing.T) {
	a := NewAuthenticator(nil, nil, "test-secret")

	// alg=none tokens must never verify, whatever their claims say.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": uuid.New().String(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	a := NewAuthenticator(nil, nil, "test-secret")

	_, err := a.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequest(t *testing.T) {
	a := NewAuthenticator(nil, nil, "test-secret")
	user := &domain.User{ID: uuid.New(), Username: "alice"}

	token, err := a.issueToken(user)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	got, err := a.VerifyRequest(r)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got)
}

func TestVerifyRequest_MissingHeader(t *testing.T) {
	a := NewAuthenticator(nil, nil, "test-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	_, err := a.VerifyRequest(r)
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "10.0.0.7:54321"
	assert.Equal(t, "10.0.0.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
