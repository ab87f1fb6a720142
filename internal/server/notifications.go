package server

import (
	"fmt"
	"net/http"
	"strconv"

	"bloodlink/pkg/types"
)

const defaultNotificationLimit = 20

func (s *Service) handleNotifications(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", types.ErrInvalidRequest))
			return
		}
		limit = n
	}

	s.writeJSON(w, http.StatusOK, s.inbox.List(a.ID, limit))
}

func (s *Service) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())

	if err := s.inbox.MarkRead(a.ID, r.PathValue("eventID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())

	if err := s.inbox.Delete(a.ID, r.PathValue("eventID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
