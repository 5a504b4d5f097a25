// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout, and issuing and
// rotating token pairs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coachsync/coachsync/internal/common"
	"github.com/coachsync/coachsync/internal/dbx"
	"github.com/coachsync/coachsync/internal/server/auth"
	"github.com/coachsync/coachsync/internal/server/models"
	"github.com/coachsync/coachsync/internal/server/repositories/refreshtokens"
	"github.com/coachsync/coachsync/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Device describes where a login came from; stored on the refresh session.
type Device struct {
	Info      string
	IPAddress string
}

// UserService provides authentication-related operations:
//   - Register: create users and mint an initial token pair
//   - Login: verify credentials and mint tokens
//   - Refresh: rotate refresh tokens and mint new access tokens
//   - Logout: drop the session and denylist the presenting access token
type UserService struct {
	db     *sql.DB
	tokens *auth.Manager
}

func NewUserService(db *sql.DB, tokens *auth.Manager) *UserService {
	return &UserService{db: db, tokens: tokens}
}

// Register creates a new user with a bcrypt password hash and returns a
// token pair. Duplicate emails yield common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string, role models.Role, device Device) (*models.User, *TokenPair, error) {
	if !role.Valid() {
		role = models.RoleClient
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := users.NewPostgresRepository(s.db)
	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, user, device, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies the password against the stored bcrypt hash and, on
// success, returns a new token pair. Unknown emails, wrong passwords, and
// disabled or soft-deleted accounts all map to common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string, device Device) (*models.User, *TokenPair, error) {
	repo := users.NewPostgresRepository(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}
	if !user.Usable() {
		return nil, nil, common.ErrorUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user, device, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired; unknown or
// already-consumed tokens yield ErrorUnauthorized. An expired or revoked
// refresh token never produces a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string, device Device) (*TokenPair, error) {
	repo := refreshtokens.NewPostgresRepository(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	userRepo := users.NewPostgresRepository(s.db)
	user, err := userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !user.Usable() {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := refreshtokens.NewPostgresRepository(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, device, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout deletes the refresh session and denylists the presenting access
// token's jti so it dies before its natural expiry.
func (s *UserService) Logout(ctx context.Context, refreshToken, jti string) error {
	repo := refreshtokens.NewPostgresRepository(s.db)
	if err := repo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	if jti != "" {
		if err := s.tokens.RevokeToken(ctx, jti); err != nil {
			return fmt.Errorf("error revoking access token: %w", err)
		}
	}
	return nil
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, device Device, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.tokens.GenerateRefreshToken(ctx, tx, auth.RefreshParams{
		UserID:     user.ID,
		DeviceInfo: device.Info,
		IPAddress:  device.IPAddress,
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
