package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coachsync/coachsync/internal/server/models"
)

// NewRouter wires the REST surface.
//
// Gate assignment:
//   - auth endpoints other than logout are public
//   - workout mutations require Authenticate
//   - the exercise library uses OptionalAuth (personalized when possible)
//   - presigned uploads additionally require a verified email
func NewRouter(h *Handlers, m *AuthMiddleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", h.Refresh).Methods(http.MethodPost)
	r.Handle("/api/auth/logout", m.Authenticate(http.HandlerFunc(h.Logout))).Methods(http.MethodPost)

	r.Handle("/api/exercises", m.OptionalAuth(http.HandlerFunc(h.ListExercises))).Methods(http.MethodGet)

	r.Handle("/api/workouts/log", m.Authenticate(h.WorkoutEvent(models.EventWorkoutLog))).Methods(http.MethodPost)
	r.Handle("/api/workouts/complete", m.Authenticate(h.WorkoutEvent(models.EventWorkoutComplete))).Methods(http.MethodPost)
	r.Handle("/api/workouts/skip", m.Authenticate(h.WorkoutEvent(models.EventWorkoutSkip))).Methods(http.MethodPost)
	r.Handle("/api/metrics/log", m.Authenticate(h.WorkoutEvent(models.EventMetricLog))).Methods(http.MethodPost)

	r.Handle("/api/uploads/presign",
		m.Authenticate(m.RequireVerified(http.HandlerFunc(h.PresignUpload)))).Methods(http.MethodPost)

	return r
}
