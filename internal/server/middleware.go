package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyActor contextKey = "actor"

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

type role string

const (
	roleHospital role = "hospital"
	roleDonor    role = "donor"
)

type actor struct {
	ID   string
	Role role
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireActor reads the caller identity set by the upstream auth layer and
// adds it to the request context.
func (s *Service) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerActorID))
		kind := role(strings.ToLower(strings.TrimSpace(r.Header.Get(headerActorRole))))

		if id == "" || (kind != roleHospital && kind != roleDonor) {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{
				Error:   "unauthenticated",
				Message: "missing or invalid actor headers",
			})
			return
		}

		s.logger.WithFields(logrus.Fields{
			"actor_id":   id,
			"actor_role": kind,
		}).Debug("resolved actor")

		ctx := context.WithValue(r.Context(), contextKeyActor, actor{ID: id, Role: kind})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) (actor, bool) {
	a, ok := ctx.Value(contextKeyActor).(actor)
	return a, ok
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
