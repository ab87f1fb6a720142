package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"bloodlink/pkg/types"
)

type availabilityBody struct {
	Available *bool `json:"available"`
}

type locationBody struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *Service) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	donor, err := requireRole(r, roleDonor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body availabilityBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Available == nil {
		s.writeError(w, r, fmt.Errorf("%w: available is required", types.ErrInvalidRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.donors.SetAvailability(ctx, donor.ID, *body.Available); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeDonor(w, r, donor.ID)
}

func (s *Service) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	donor, err := requireRole(r, roleDonor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body locationBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		s.writeError(w, r, fmt.Errorf("%w: latitude and longitude are required", types.ErrInvalidCoordinate))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.donors.UpdateLocation(ctx, donor.ID, *body.Latitude, *body.Longitude); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeDonor(w, r, donor.ID)
}

func (s *Service) writeDonor(w http.ResponseWriter, r *http.Request, donorID string) {
	donor, err := s.donors.Donor(donorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, donor)
}

func (s *Service) handleNearbyRequests(w http.ResponseWriter, r *http.Request) {
	donor, err := requireRole(r, roleDonor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	maxKm := s.config.MatchRadiusKm
	if raw := r.URL.Query().Get("maxKm"); raw != "" {
		maxKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: maxKm must be a number", types.ErrInvalidRequest))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	nearby, err := s.manager.NearbyRequests(ctx, donor.ID, maxKm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, nearby)
}

func (s *Service) handleDonorDonations(w http.ResponseWriter, r *http.Request) {
	donor, err := requireRole(r, roleDonor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	donations, err := s.manager.DonorDonations(ctx, donor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donations)
}
