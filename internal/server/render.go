package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bloodlink/pkg/types"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError maps engine errors onto HTTP statuses. Anything unrecognised is
// logged and reported as an internal error.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		message = "internal server error"
	}

	s.writeJSON(w, status, errorBody{Error: code, Message: message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, types.ErrInvalidCoordinate):
		return http.StatusBadRequest, "invalid_coordinate"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, types.ErrDonorNotFound):
		return http.StatusNotFound, "donor_not_found"
	case errors.Is(err, types.ErrHospitalNotFound):
		return http.StatusNotFound, "hospital_not_found"
	case errors.Is(err, types.ErrRequestNotFound):
		return http.StatusNotFound, "request_not_found"
	case errors.Is(err, types.ErrResponseNotFound):
		return http.StatusNotFound, "response_not_found"
	case errors.Is(err, types.ErrNotificationNotFound):
		return http.StatusNotFound, "notification_not_found"
	case errors.Is(err, types.ErrResponseNotPending):
		return http.StatusConflict, "response_not_pending"
	case errors.Is(err, types.ErrRequestClosed):
		return http.StatusConflict, "request_closed"
	case errors.Is(err, types.ErrRequestNotOpen):
		return http.StatusConflict, "request_not_open"
	case errors.Is(err, types.ErrDuplicateResponse):
		return http.StatusConflict, "duplicate_response"
	case errors.Is(err, types.ErrIneligibleDonor):
		return http.StatusUnprocessableEntity, "ineligible_donor"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON reads an optional JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed body: %v", types.ErrInvalidRequest, err)
	}
	return nil
}
