package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coachsync/coachsync/internal/common"
	"github.com/coachsync/coachsync/internal/logging"
	"github.com/coachsync/coachsync/internal/server/auth"
	"github.com/coachsync/coachsync/internal/server/repositories/users"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	tokenIDKey  ctxKey = "tokenID"
)

// Identity is the per-request result of validating a bearer token. It is
// only constructed from a token that is valid, unexpired, not revoked, and
// whose subject is an existing, active, non-deleted user.
type Identity struct {
	ID         string
	Email      string
	Role       string
	IsActive   bool
	IsVerified bool
}

// IdentityFrom extracts the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// TokenIDFrom returns the jti of the presenting token, if authenticated.
func TokenIDFrom(ctx context.Context) (string, bool) {
	jti, ok := ctx.Value(tokenIDKey).(string)
	return jti, ok
}

// authError pairs an HTTP status with a stable client-facing code.
type authError struct {
	status int
	code   string
}

// AuthMiddleware classifies inbound requests using the token service and
// the user repository.
type AuthMiddleware struct {
	tokens *auth.Manager
	users  users.Repository
	logger logging.Logger
}

func NewAuthMiddleware(tokens *auth.Manager, users users.Repository, logger logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		logger: logger.With("module", "auth_middleware"),
	}
}

// resolveIdentity runs the full token-to-identity pipeline. Every failure
// collapses into a single *authError so the two policies (reject vs degrade)
// branch in exactly one place.
func (m *AuthMiddleware) resolveIdentity(r *http.Request) (*Identity, string, *authError) {
	authz := r.Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if authz == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, "", &authError{http.StatusUnauthorized, CodeMissingToken}
	}

	claims, err := m.tokens.VerifyAccessToken(parts[1])
	switch {
	case err == nil:
	case errors.Is(err, common.ErrTokenExpired):
		return nil, "", &authError{http.StatusUnauthorized, CodeTokenExpired}
	case errors.Is(err, common.ErrInvalidToken):
		return nil, "", &authError{http.StatusUnauthorized, CodeInvalidToken}
	default:
		// Safety net for unexpected verification failures: logged, not
		// detailed to the client.
		m.logger.Error(r.Context(), "unexpected token verification failure", "error", err)
		return nil, "", &authError{http.StatusInternalServerError, CodeAuthFailed}
	}

	revoked, err := m.tokens.IsTokenRevoked(r.Context(), claims.ID)
	if err != nil {
		m.logger.Error(r.Context(), "revocation check failed", "error", err)
		return nil, "", &authError{http.StatusInternalServerError, CodeAuthFailed}
	}
	if revoked {
		return nil, "", &authError{http.StatusUnauthorized, CodeTokenRevoked}
	}

	user, err := m.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", &authError{http.StatusUnauthorized, CodeUserNotFound}
		}
		m.logger.Error(r.Context(), "user lookup failed", "error", err)
		return nil, "", &authError{http.StatusInternalServerError, CodeAuthFailed}
	}
	// Missing, soft-deleted, and deactivated accounts all map to the same
	// code so the response does not leak which case applies.
	if !user.Usable() {
		return nil, "", &authError{http.StatusUnauthorized, CodeUserNotFound}
	}

	identity := &Identity{
		ID:         user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
	}
	return identity, claims.ID, nil
}

// Authenticate rejects any request that does not carry a valid, unexpired,
// unrevoked bearer token belonging to a usable account. On success the
// identity and token id are attached to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, jti, authErr := m.resolveIdentity(r)
		if authErr != nil {
			writeError(w, authErr.status, authErr.code)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		ctx = context.WithValue(ctx, tokenIDKey, jti)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth runs the same checks as Authenticate but every failure mode
// degrades silently to "no identity attached"; the request always proceeds.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, jti, authErr := m.resolveIdentity(r)
		if authErr != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		ctx = context.WithValue(ctx, tokenIDKey, jti)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified is a secondary gate layered after Authenticate: 401 when
// no identity is attached, 403 EMAIL_NOT_VERIFIED when the account has not
// confirmed its email.
func (m *AuthMiddleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized)
			return
		}
		if !identity.IsVerified {
			writeError(w, http.StatusForbidden, CodeEmailNotVerified)
			return
		}
		next.ServeHTTP(w, r)
	})
}
