package services

import (
	"context"
	"fmt"
	"time"

	"fieldvisit/config"
	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/constants"
	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionService issues and validates bearer tokens. A token is a signed
// JWT whose ID points at a valkey session key; revoking the key kills the
// token before its expiry.
type SessionService struct {
	db     database.DB
	config config.Config
	ttl    time.Duration
	log    logger.Logger
}

func NewSessionService(db database.DB, config config.Config) *SessionService {
	return &SessionService{
		db:     db,
		config: config,
		ttl:    time.Duration(config.SessionTTLHours) * time.Hour,
		log:    logger.New("SessionService"),
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a server-side session for the user and returns the
// signed token referencing it
func (s *SessionService) Issue(ctx context.Context, user *User) (string, error) {
	log := s.log.Function("Issue")

	sessionID := uuid.New().String()

	err := database.NewCacheBuilder(s.db.Cache.Session, sessionID).
		WithContext(ctx).
		WithHash(constants.SessionCachePrefix).
		WithValue(user.ID.String()).
		WithTTL(s.ttl).
		Set()
	if err != nil {
		return "", log.Err("failed to store session", err, "userID", user.ID)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", log.Err("failed to sign session token", err, "userID", user.ID)
	}

	log.Info("session issued", "userID", user.ID, "sessionID", sessionID)
	return token, nil
}

// Validate parses the token, verifies its signature, and confirms the
// referenced session has not been revoked or expired server-side
func (s *SessionService) Validate(ctx context.Context, token string) (uuid.UUID, string, error) {
	log := s.log.Function("Validate")

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, "", fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return uuid.Nil, "", fmt.Errorf("%w: malformed token claims", apperrors.ErrUnauthorized)
	}

	storedUserID, found, err := database.NewCacheBuilder(s.db.Cache.Session, claims.ID).
		WithContext(ctx).
		WithHash(constants.SessionCachePrefix).
		GetString()
	if err != nil {
		return uuid.Nil, "", log.Err("failed to look up session", err, "sessionID", claims.ID)
	}
	if !found || storedUserID != claims.Subject {
		return uuid.Nil, "", fmt.Errorf("%w: session expired or revoked", apperrors.ErrUnauthorized)
	}

	return userID, claims.ID, nil
}

func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	log := s.log.Function("Revoke")

	err := database.NewCacheBuilder(s.db.Cache.Session, sessionID).
		WithContext(ctx).
		WithHash(constants.SessionCachePrefix).
		Delete()
	if err != nil {
		return log.Err("failed to revoke session", err, "sessionID", sessionID)
	}

	log.Info("session revoked", "sessionID", sessionID)
	return nil
}
