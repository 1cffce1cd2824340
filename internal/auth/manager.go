package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"arcade-chat/internal/models"
	"arcade-chat/internal/repositories"
	"arcade-chat/pkg/apperrors"
)

// Manager issues and validates credential-backed sessions. Tokens are JWTs
// wrapping a session id; the session row must still exist, so sign-out and
// account deletion revoke tokens immediately.
type Manager struct {
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	secret   []byte
	ttl      time.Duration
}

type sessionClaims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// NewManager constructs a Manager.
func NewManager(users repositories.UserRepository, sessions repositories.SessionRepository, secret string, ttl time.Duration) *Manager {
	return &Manager{users: users, sessions: sessions, secret: []byte(secret), ttl: ttl}
}

// SignUp registers a credential account and opens a session.
func (m *Manager) SignUp(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(name) < 2 {
		return models.User{}, "", fmt.Errorf("%w: name must be at least 2 characters", apperrors.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return models.User{}, "", fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return models.User{}, "", fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := m.users.CreateUser(ctx, uuid.NewString(), name, email, string(hash), false)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return models.User{}, "", fmt.Errorf("%w: email already registered", apperrors.ErrValidation)
		}
		return models.User{}, "", err
	}

	token, err := m.openSession(ctx, user.ID)
	return user, token, err
}

// SignIn validates credentials and opens a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := m.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, "", apperrors.ErrUnauthorized
		}
		return models.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", apperrors.ErrUnauthorized
	}

	token, err := m.openSession(ctx, user.ID)
	return user, token, err
}

// GetSession validates a token and returns its user, refreshing the session
// activity timestamp that feeds the online projection.
func (m *Manager) GetSession(ctx context.Context, token string) (models.User, models.Session, error) {
	sessionToken, err := m.parseToken(token)
	if err != nil {
		return models.User{}, models.Session{}, apperrors.ErrUnauthorized
	}

	session, err := m.sessions.GetSession(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return models.User{}, models.Session{}, apperrors.ErrUnauthorized
		}
		return models.User{}, models.Session{}, err
	}

	user, err := m.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, models.Session{}, apperrors.ErrUnauthorized
		}
		return models.User{}, models.Session{}, err
	}

	if err := m.sessions.TouchSession(ctx, sessionToken); err != nil {
		// Presence degrades but the request itself is fine.
		return user, session, nil
	}
	return user, session, nil
}

// SignOut deletes the session behind a token.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	sessionToken, err := m.parseToken(token)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	return m.sessions.DeleteSession(ctx, sessionToken)
}

// IsAdmin reports whether the user record carries the admin flag.
func (m *Manager) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

func (m *Manager) openSession(ctx context.Context, userID string) (string, error) {
	sessionToken := uuid.NewString()
	expiresAt := time.Now().Add(m.ttl)

	if _, err := m.sessions.CreateSession(ctx, sessionToken, userID, expiresAt); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	claims := sessionClaims{
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseToken(token string) (string, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || claims.SessionToken == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.SessionToken, nil
}
