// Package auth is the authenticator collaborator: registration, login and
// request identity resolution. The file lifecycle core only ever consumes
// the resolved user id it produces.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

const (
	tokenValidity = 30 * 24 * time.Hour

	lockoutThreshold = 5
	lockoutWindow    = 15 * time.Minute
	lockoutDuration  = 15 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLockedOut          = errors.New("too many failed login attempts, try again later")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Authenticator struct {
	userRepo    *repository.UserRepository
	lockoutRepo *repository.LockoutRepository
	jwtSecret   []byte
}

func NewAuthenticator(userRepo *repository.UserRepository, lockoutRepo *repository.LockoutRepository, jwtSecret string) *Authenticator {
	return &Authenticator{
		userRepo:    userRepo,
		lockoutRepo: lockoutRepo,
		jwtSecret:   []byte(jwtSecret),
	}
}

// ValidatePassword enforces the registration password rules.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		return errors.New("password must contain at least one digit")
	}
	hasSpecial := false
	for _, r := range password {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}
	return nil
}

// Register creates a user with the default storage quota and returns it
// with a fresh token.
func (a *Authenticator) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" {
		return nil, "", errors.New("username and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", errors.New("email is not valid")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		StorageUsed:  0,
		StorageLimit: domain.DefaultStorageLimit,
	}

	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := a.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login authenticates by username or email. Failures count toward a
// per-client lockout so password guessing from one address stalls out.
func (a *Authenticator) Login(ctx context.Context, login, password, clientIP string) (*domain.User, string, error) {
	key := lockoutKey(clientIP, login)

	locked, err := a.lockoutRepo.IsLocked(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if locked {
		return nil, "", ErrLockedOut
	}

	user, err := a.userRepo.GetByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrUserNotFound) {
		a.recordFailure(ctx, key)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		a.recordFailure(ctx, key)
		return nil, "", ErrInvalidCredentials
	}

	if err := a.lockoutRepo.Reset(ctx, key); err != nil {
		return nil, "", err
	}

	token, err := a.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (a *Authenticator) recordFailure(ctx context.Context, key string) {
	if err := a.lockoutRepo.RecordFailure(ctx, key, lockoutThreshold, lockoutWindow, lockoutDuration); err != nil {
		// Lockout bookkeeping must not turn a clean 401 into a 500.
		log.Printf("warning: failed to record login failure: %v", err)
	}
}

func (a *Authenticator) issueToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"exp":      time.Now().Add(tokenValidity).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// UserByID loads the account behind an already verified token.
func (a *Authenticator) UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return a.userRepo.GetByID(ctx, id)
}

// VerifyToken parses and validates a bearer token and returns the user id
// inside it.
func (a *Authenticator) VerifyToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// VerifyRequest resolves the caller's identity from the Authorization
// header. Handlers call this first on every protected route.
func (a *Authenticator) VerifyRequest(r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return uuid.Nil, errors.New("no authorization header")
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")

	return a.VerifyToken(tokenString)
}

// ClientIP extracts the requester address for lockout keying.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func lockoutKey(clientIP, login string) string {
	return clientIP + "|" + strings.ToLower(strings.TrimSpace(login))
}
