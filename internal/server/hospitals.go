package server

import (
	"context"
	"net/http"
)

func (s *Service) handleFulfilledRequests(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	fulfilled, err := s.manager.FulfilledRequests(ctx, hospital.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, fulfilled)
}

func (s *Service) handleHospitalDonations(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	donations, err := s.manager.HospitalDonations(ctx, hospital.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donations)
}
