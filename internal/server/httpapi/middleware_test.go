package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachsync/coachsync/internal/common"
	"github.com/coachsync/coachsync/internal/logging"
	"github.com/coachsync/coachsync/internal/server/auth"
	"github.com/coachsync/coachsync/internal/server/config"
	"github.com/coachsync/coachsync/internal/server/models"
)

type fakeChecker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeChecker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

func (f *fakeChecker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = map[string]bool{}
	}
	f.revoked[jti] = true
	return nil
}

type fakeUsersRepo struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	return nil
}

type mwFixture struct {
	tokens  *auth.Manager
	checker *fakeChecker
	users   *fakeUsersRepo
	mw      *AuthMiddleware
}

func newMWFixture(t *testing.T, mode config.RevocationFailMode) *mwFixture {
	t.Helper()
	checker := &fakeChecker{}
	usersRepo := &fakeUsersRepo{users: map[string]*models.User{}}
	cfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		RevocationFailMode:          mode,
	}
	tokens := auth.NewManager(cfg, checker, logging.NewNopLogger())
	return &mwFixture{
		tokens:  tokens,
		checker: checker,
		users:   usersRepo,
		mw:      NewAuthMiddleware(tokens, usersRepo, logging.NewNopLogger()),
	}
}

func (f *mwFixture) addUser(u *models.User) *models.User {
	f.users.users[u.ID] = u
	return u
}

func (f *mwFixture) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	signed, err := f.tokens.GenerateAccessToken(u)
	require.NoError(t, err)
	return signed
}

func activeUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleClient, IsActive: true, IsVerified: true}
}

// okHandler records whether it ran and what identity it saw.
type okHandler struct {
	called   bool
	identity *Identity
	hasID    bool
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.identity, h.hasID = IdentityFrom(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doRequest(handler http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

func TestAuthenticate_MissingToken(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)

	tests := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"empty bearer", "Bearer "},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"scheme only", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &okHandler{}
			rec := doRequest(f.mw.Authenticate(next), tt.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, CodeMissingToken, errorCode(t, rec))
			assert.False(t, next.called)
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)

	expiredCfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: -time.Minute,
	}
	expiredTokens := auth.NewManager(expiredCfg, f.checker, logging.NewNopLogger())
	signed, err := expiredTokens.GenerateAccessToken(activeUser("u1"))
	require.NoError(t, err)

	rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenExpired, errorCode(t, rec))
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)

	rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, errorCode(t, rec))
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)

	claims, err := f.tokens.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.NoError(t, f.checker.Revoke(context.Background(), claims.ID, time.Hour))

	rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenRevoked, errorCode(t, rec))
}

// Revocation is checked before the user lookup, so a revoked token reports
// TOKEN_REVOKED even when its subject no longer exists.
func TestAuthenticate_RevocationPrecedesUserLookup(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := activeUser("ghost")
	signed := f.tokenFor(t, user)

	claims, err := f.tokens.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.NoError(t, f.checker.Revoke(context.Background(), claims.ID, time.Hour))

	rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer "+signed)
	assert.Equal(t, CodeTokenRevoked, errorCode(t, rec))
}

// Missing, soft-deleted, and deactivated accounts are indistinguishable on
// the wire: all three produce USER_NOT_FOUND.
func TestAuthenticate_UnusableAccountsIndistinguishable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		user *models.User // nil means not in the repo at all
	}{
		{"missing", nil},
		{"soft deleted", &models.User{ID: "u1", IsActive: true, DeletedAt: &now}},
		{"inactive", &models.User{ID: "u1", IsActive: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMWFixture(t, config.RevocationFailClosed)
			subject := activeUser("u1")
			if tt.user != nil {
				f.addUser(tt.user)
			}
			signed := f.tokenFor(t, subject)

			rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer "+signed)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, CodeUserNotFound, errorCode(t, rec))
		})
	}
}

func TestAuthenticate_CheckerDown_FailClosed(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)
	f.checker.err = errors.New("redis down")

	rec := doRequest(f.mw.Authenticate(&okHandler{}), "Bearer "+signed)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeAuthFailed, errorCode(t, rec))
}

func TestAuthenticate_CheckerDown_FailOpen(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailOpen)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)
	f.checker.err = errors.New("redis down")

	next := &okHandler{}
	rec := doRequest(f.mw.Authenticate(next), "Bearer "+signed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
}

func TestAuthenticate_Success(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)

	next := &okHandler{}
	rec := doRequest(f.mw.Authenticate(next), "Bearer "+signed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, next.called)
	require.True(t, next.hasID)
	assert.Equal(t, "u1", next.identity.ID)
	assert.Equal(t, "u1@example.com", next.identity.Email)
	assert.Equal(t, "client", next.identity.Role)
}

func TestAuthenticate_SchemeCaseInsensitive(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)

	next := &okHandler{}
	rec := doRequest(f.mw.Authenticate(next), "bearer "+signed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
}

// OptionalAuth must never reject: every failure mode degrades to an
// anonymous request.
func TestOptionalAuth_NeverRejects(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		setup func(f *mwFixture) string // returns Authorization header
	}{
		{"no header", func(f *mwFixture) string { return "" }},
		{"garbage token", func(f *mwFixture) string { return "Bearer junk" }},
		{"revoked", func(f *mwFixture) string {
			u := f.addUser(activeUser("u1"))
			signed, _ := f.tokens.GenerateAccessToken(u)
			claims, _ := f.tokens.VerifyAccessToken(signed)
			_ = f.checker.Revoke(context.Background(), claims.ID, time.Hour)
			return "Bearer " + signed
		}},
		{"deleted user", func(f *mwFixture) string {
			u := f.addUser(&models.User{ID: "u1", IsActive: true, DeletedAt: &now})
			signed, _ := f.tokens.GenerateAccessToken(u)
			return "Bearer " + signed
		}},
		{"checker error fail-closed", func(f *mwFixture) string {
			u := f.addUser(activeUser("u1"))
			signed, _ := f.tokens.GenerateAccessToken(u)
			f.checker.err = errors.New("redis down")
			return "Bearer " + signed
		}},
		{"user repo error", func(f *mwFixture) string {
			u := activeUser("u1")
			signed, _ := f.tokens.GenerateAccessToken(u)
			f.users.err = errors.New("db down")
			return "Bearer " + signed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMWFixture(t, config.RevocationFailClosed)
			authz := tt.setup(f)

			next := &okHandler{}
			rec := doRequest(f.mw.OptionalAuth(next), authz)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, next.called)
			assert.False(t, next.hasID)
		})
	}
}

func TestOptionalAuth_AttachesIdentityWhenValid(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)
	user := f.addUser(activeUser("u1"))
	signed := f.tokenFor(t, user)

	next := &okHandler{}
	rec := doRequest(f.mw.OptionalAuth(next), "Bearer "+signed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, next.hasID)
	assert.Equal(t, "u1", next.identity.ID)
}

func TestRequireVerified(t *testing.T) {
	f := newMWFixture(t, config.RevocationFailClosed)

	verified := f.addUser(activeUser("u1"))
	unverified := &models.User{ID: "u2", Email: "u2@example.com", Role: models.RoleClient, IsActive: true, IsVerified: false}
	f.addUser(unverified)

	chain := func() (http.Handler, *okHandler) {
		next := &okHandler{}
		return f.mw.Authenticate(f.mw.RequireVerified(next)), next
	}

	t.Run("verified passes", func(t *testing.T) {
		h, next := chain()
		rec := doRequest(h, "Bearer "+f.tokenFor(t, verified))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
	})

	t.Run("unverified gets 403", func(t *testing.T) {
		h, next := chain()
		rec := doRequest(h, "Bearer "+f.tokenFor(t, unverified))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, CodeEmailNotVerified, errorCode(t, rec))
		assert.False(t, next.called)
	})

	t.Run("no identity gets 401", func(t *testing.T) {
		next := &okHandler{}
		rec := doRequest(f.mw.RequireVerified(next), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, next.called)
	})
}
