package server

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"bloodlink/pkg/types"
)

type createRequestResponse struct {
	Request    *types.BloodRequest `json:"request"`
	Candidates []types.Candidate   `json:"candidates"`
}

type respondBody struct {
	Note *string `json:"note,omitempty"`
}

// requireRole returns the actor when it has the given role, or ErrForbidden.
func requireRole(r *http.Request, want role) (actor, error) {
	a, ok := actorFromContext(r.Context())
	if !ok || a.Role != want {
		return actor{}, fmt.Errorf("%w: %s role required", types.ErrForbidden, want)
	}
	return a, nil
}

func (s *Service) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	requests, err := s.manager.ActiveRequests(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

// handleCreateRequest accepts either JSON or the hospital's urlencoded form.
func (s *Service) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	input, err := decodeRequestInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, candidates, err := s.manager.Create(ctx, hospital.ID, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createRequestResponse{Request: req, Candidates: candidates})
}

func decodeRequestInput(r *http.Request) (types.RequestInput, error) {
	var input types.RequestInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return input, fmt.Errorf("%w: invalid form payload", types.ErrInvalidRequest)
		}
		if err := decoder.Decode(&input, r.Form); err != nil {
			return input, fmt.Errorf("%w: %v", types.ErrInvalidRequest, err)
		}
	default:
		if err := decodeJSON(r, &input); err != nil {
			return input, err
		}
	}

	bloodType, err := types.ParseBloodType(string(input.BloodType))
	if err != nil {
		return input, err
	}
	urgency, err := types.ParseUrgency(string(input.Urgency))
	if err != nil {
		return input, err
	}
	input.BloodType = bloodType
	input.Urgency = urgency

	return input, nil
}

func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, err := s.manager.Request(ctx, r.PathValue("requestID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var update types.RequestUpdate
	if err := decodeJSON(r, &update); err != nil {
		s.writeError(w, r, err)
		return
	}
	if update.Urgency != nil {
		urgency, err := types.ParseUrgency(string(*update.Urgency))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		update.Urgency = &urgency
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, err := s.manager.Update(ctx, hospital.ID, r.PathValue("requestID"), update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, err := s.manager.Cancel(ctx, hospital.ID, r.PathValue("requestID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleExpireRequest(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, err := s.manager.Expire(ctx, hospital.ID, r.PathValue("requestID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleEligibleDonors(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	candidates, err := s.manager.EligibleDonors(ctx, hospital.ID, r.PathValue("requestID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Service) handleRespond(w http.ResponseWriter, r *http.Request) {
	donor, err := requireRole(r, roleDonor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body respondBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	resp, err := s.manager.Respond(ctx, donor.ID, r.PathValue("requestID"), body.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) handleAccept(w http.ResponseWriter, r *http.Request) {
	hospital, err := requireRole(r, roleHospital)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	req, err := s.manager.Accept(ctx, hospital.ID, r.PathValue("requestID"), r.PathValue("responseID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}
