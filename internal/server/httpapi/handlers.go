package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/coachsync/coachsync/internal/common"
	"github.com/coachsync/coachsync/internal/logging"
	"github.com/coachsync/coachsync/internal/server/models"
	"github.com/coachsync/coachsync/internal/server/repositories/events"
	"github.com/coachsync/coachsync/internal/server/repositories/exercises"
	"github.com/coachsync/coachsync/internal/server/services"
	"github.com/coachsync/coachsync/internal/server/uploads"
)

// maxBodyBytes caps request bodies; workout payloads are small JSON blobs.
const maxBodyBytes = 1 << 20

type Handlers struct {
	users     *services.UserService
	events    events.Repository
	exercises exercises.Repository
	uploads   *uploads.Service
	logger    logging.Logger
}

func NewHandlers(users *services.UserService, ev events.Repository, ex exercises.Repository, up *uploads.Service, logger logging.Logger) *Handlers {
	return &Handlers{
		users:     users,
		events:    ev,
		exercises: ex,
		uploads:   up,
		logger:    logger.With("module", "httpapi"),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation)
		return false
	}
	return true
}

func deviceFrom(r *http.Request) services.Device {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	return services.Device{Info: r.UserAgent(), IPAddress: ip}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Register creates an account and returns an initial token pair.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation)
		return
	}

	user, pair, err := h.users.Register(r.Context(), req.Email, req.Password, models.Role(req.Role), deviceFrom(r))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusConflict, CodeEmailTaken)
			return
		}
		h.logger.Error(r.Context(), "register failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal)
		return
	}

	writeJSON(w, http.StatusCreated, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		Role:         string(user.Role),
	})
}

// Login verifies credentials and returns a token pair.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Email, req.Password, deviceFrom(r))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized)
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		Role:         string(user.Role),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token and mints a new pair.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, CodeValidation)
		return
	}

	pair, err := h.users.Refresh(r.Context(), req.RefreshToken, deviceFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusUnauthorized, CodeUnauthorized)
		default:
			h.logger.Error(r.Context(), "refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, CodeInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout drops the refresh session and denylists the presenting jti.
// Authenticate-gated.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	jti, _ := TokenIDFrom(r.Context())
	if err := h.users.Logout(r.Context(), req.RefreshToken, jti); err != nil {
		h.logger.Error(r.Context(), "logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// WorkoutEvent persists one workout mutation for the authenticated user.
// The payload is stored verbatim, which keeps direct submissions and
// offline-queue replays identical on the wire.
func (h *Handlers) WorkoutEvent(kind models.WorkoutEventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		payload, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(payload) {
			writeError(w, http.StatusBadRequest, CodeValidation)
			return
		}

		event := &models.WorkoutEvent{
			UserID:  identity.ID,
			Kind:    kind,
			Payload: payload,
		}
		if err := h.events.Insert(r.Context(), event); err != nil {
			h.logger.Error(r.Context(), "event insert failed", "kind", string(kind), "error", err)
			writeError(w, http.StatusInternalServerError, CodeInternal)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"id": event.ID})
	}
}

type exerciseListResponse struct {
	Exercises []models.Exercise `json:"exercises"`
	Role      string            `json:"role,omitempty"`
}

// ListExercises returns the exercise library. OptionalAuth-gated: the
// response is personalized with the caller's role when a valid token is
// present, and served anonymously otherwise.
func (h *Handlers) ListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := h.exercises.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "exercise list failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal)
		return
	}

	resp := exerciseListResponse{Exercises: list}
	if identity, ok := IdentityFrom(r.Context()); ok {
		resp.Role = identity.Role
	}
	writeJSON(w, http.StatusOK, resp)
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignUpload returns a presigned PUT URL for a progress photo.
// RequireVerified-gated.
func (h *Handlers) PresignUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized)
		return
	}

	key, url, err := h.uploads.PresignedPutURL(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error(r.Context(), "presign failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal)
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{Key: key, URL: url})
}

// Health is the liveness probe used by clients to detect connectivity.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
