// Package auth implements the token service: minting and verifying access
// tokens, issuing refresh sessions, and answering revocation queries.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coachsync/coachsync/internal/common"
	"github.com/coachsync/coachsync/internal/dbx"
	"github.com/coachsync/coachsync/internal/logging"
	"github.com/coachsync/coachsync/internal/server/config"
	"github.com/coachsync/coachsync/internal/server/models"
	"github.com/coachsync/coachsync/internal/server/repositories/refreshtokens"
)

// Claims are the access-token claims. Subject carries the user id, ID the
// jti used as revocation key.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Manager is the token service. Access tokens are stateless HS256 JWTs;
// refresh tokens are opaque values persisted as session rows.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revocation RevocationChecker
	failMode   config.RevocationFailMode
	logger     logging.Logger
}

func NewManager(cfg *config.Config, revocation RevocationChecker, logger logging.Logger) *Manager {
	return &Manager{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		revocation: revocation,
		failMode:   cfg.RevocationFailMode,
		logger:     logger.With("module", "auth"),
	}
}

// AccessTokenTTL returns the configured access-token lifetime. The remaining
// lifetime is also the TTL used when a token gets denylisted.
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTTL }

// GenerateAccessToken mints a signed token for the user with a fresh jti.
func (m *Manager) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
		Email: user.Email,
		Role:  string(user.Role),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyAccessToken parses and validates a token string.
//
// It returns common.ErrTokenExpired for structurally valid but expired
// tokens and common.ErrInvalidToken for everything else (malformed token,
// bad signature, wrong algorithm). Callers rely on the distinction.
func (m *Manager) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// RefreshParams describe the device a refresh session is bound to.
type RefreshParams struct {
	UserID     string
	DeviceInfo string
	IPAddress  string
}

// GenerateRefreshToken creates a session row and returns the opaque token
// value. The db handle may be a transaction so rotation stays atomic.
func (m *Manager) GenerateRefreshToken(ctx context.Context, db dbx.DBTX, p RefreshParams) (string, error) {
	value, err := common.MakeRandHexString(32)
	if err != nil {
		return "", fmt.Errorf("error generating refresh token: %w", err)
	}

	repo := refreshtokens.NewPostgresRepository(db)
	if err := repo.Create(ctx, &models.RefreshToken{
		UserID:     p.UserID,
		Token:      value,
		DeviceInfo: p.DeviceInfo,
		IPAddress:  p.IPAddress,
		Expires:    time.Now().Add(m.refreshTTL),
	}); err != nil {
		return "", fmt.Errorf("error persisting refresh token: %w", err)
	}
	return value, nil
}

// IsTokenRevoked consults the revocation list for the given jti.
//
// When the backend is unreachable, the configured fail mode decides the
// outcome: "open" logs and reports not revoked, "closed" propagates the
// error so callers reject the request.
func (m *Manager) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := m.revocation.IsRevoked(ctx, jti)
	if err != nil {
		if m.failMode == config.RevocationFailOpen {
			m.logger.Warn(ctx, "revocation check failed, failing open", "error", err)
			return false, nil
		}
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return revoked, nil
}

// RevokeToken denylists a jti for the remaining access-token lifetime.
func (m *Manager) RevokeToken(ctx context.Context, jti string) error {
	return m.revocation.Revoke(ctx, jti, m.accessTTL)
}
