package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	ErrDonorNotFound    = errors.New("donor not found")
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrRequestNotFound  = errors.New("blood request not found")
	ErrResponseNotFound = errors.New("response not found")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrRequestNotOpen = errors.New("blood request is not open")
	// ErrRequestClosed is returned for any mutation of a fulfilled, expired or
	// cancelled request. It matches ErrRequestNotOpen with errors.Is.
	ErrRequestClosed = fmt.Errorf("%w: request is closed", ErrRequestNotOpen)

	ErrDuplicateResponse  = errors.New("donor already has an active response on this request")
	ErrIneligibleDonor    = errors.New("donor blood type cannot supply this request")
	ErrResponseNotPending = errors.New("response is not pending")

	ErrForbidden = errors.New("actor does not own this resource")
)
