// Package lifecycle owns the state machine of blood requests: creation,
// donor responses, acceptance, cancellation and expiry. Every mutation of a
// request runs under a lock keyed by the request ID, so unrelated requests
// never contend.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bloodlink/internal/compat"
	"bloodlink/internal/geo"
	"bloodlink/internal/keylock"
	"bloodlink/internal/matcher"
	"bloodlink/internal/metrics"
	"bloodlink/internal/notify"
	"bloodlink/internal/registry"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	transitionCreated   = "created"
	transitionResponded = "responded"
	transitionAccepted  = "accepted"
	transitionCancelled = "cancelled"
	transitionExpired   = "expired"
	transitionUpdated   = "updated"
)

type Manager struct {
	logger     *logrus.Logger
	store      Store
	donations  DonationStore
	donors     *registry.Registry
	hospitals  *registry.Hospitals
	matcher    *matcher.Matcher
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics

	now        func() time.Time
	idleExpiry time.Duration

	locks *keylock.Locker
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithDonationStore sets where accepted responses schedule their donations.
// The default keeps them in memory.
func WithDonationStore(store DonationStore) Option {
	return func(m *Manager) {
		m.donations = store
	}
}

// WithIdleExpiry sets how long an open request may go without activity before
// ExpireIdle closes it. 0 disables idle expiry.
func WithIdleExpiry(d time.Duration) Option {
	return func(m *Manager) {
		m.idleExpiry = d
	}
}

func New(
	logger *logrus.Logger,
	store Store,
	donors *registry.Registry,
	hospitals *registry.Hospitals,
	matcher *matcher.Matcher,
	dispatcher notify.Dispatcher,
	opts ...Option,
) *Manager {
	m := &Manager{
		logger:     logger,
		store:      store,
		donations:  NewMemoryDonationStore(),
		donors:     donors,
		hospitals:  hospitals,
		matcher:    matcher,
		dispatcher: dispatcher,
		now:        time.Now,
		locks:      keylock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new request at the hospital's location, computes the initial
// candidate list and notifies those donors.
func (m *Manager) Create(ctx context.Context, hospitalID string, input types.RequestInput) (*types.BloodRequest, []types.Candidate, error) {
	req, err := m.newRequest(hospitalID, input)
	if err != nil {
		m.metrics.IncTransitionError(transitionCreated, reason(err))
		return nil, nil, err
	}

	if err := m.store.SaveRequest(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("failed to save request %s: %w", req.ID, err)
	}
	m.metrics.IncTransition(transitionCreated)

	entry := m.logger.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"hospital_id": req.HospitalID,
		"blood_type":  req.BloodType,
		"urgency":     req.Urgency,
	})

	candidates, err := m.matcher.Match(req)
	if err != nil {
		// the request stays open; EligibleDonors can refresh the list later
		entry.WithError(err).Error("failed to match donors for new request")
		return req.Clone(), []types.Candidate{}, nil
	}

	recipients := make([]string, len(candidates))
	for i, c := range candidates {
		recipients[i] = c.Donor.ID
	}
	m.dispatcher.Dispatch(ctx, m.event(types.EventRequestCreated, req, recipients))

	entry.WithField("candidates", len(candidates)).Info("blood request created")

	return req.Clone(), candidates, nil
}

func (m *Manager) newRequest(hospitalID string, input types.RequestInput) (*types.BloodRequest, error) {
	if !input.BloodType.Valid() {
		return nil, fmt.Errorf("%w: unknown blood type %q", types.ErrInvalidRequest, input.BloodType)
	}
	if input.UnitsNeeded < 1 {
		return nil, fmt.Errorf("%w: units needed must be at least 1", types.ErrInvalidRequest)
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = types.UrgencyNormal
	}
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", types.ErrInvalidRequest, input.Urgency)
	}

	hospital, err := m.hospitals.Hospital(hospitalID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	return &types.BloodRequest{
		ID:             utils.NanoID(),
		HospitalID:     hospital.ID,
		BloodType:      input.BloodType,
		UnitsNeeded:    input.UnitsNeeded,
		Urgency:        urgency,
		Description:    trimmed(input.Description),
		State:          types.RequestStateOpen,
		OriginLat:      hospital.Latitude,
		OriginLon:      hospital.Longitude,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
		Responses:      []*types.Response{},
	}, nil
}

// Respond records a pending response from a donor and notifies the hospital.
// A donor whose earlier response was rejected may respond again while the
// request is open.
func (m *Manager) Respond(ctx context.Context, donorID, requestID string, note *string) (*types.Response, error) {
	var created *types.Response

	_, err := m.mutate(ctx, requestID, transitionResponded, func(req *types.BloodRequest, now time.Time) ([]types.Event, error) {
		if req.State.Terminal() {
			return nil, types.ErrRequestClosed
		}

		donor, err := m.donors.Donor(donorID)
		if err != nil {
			return nil, err
		}
		if req.ActiveResponse(donorID) != nil {
			return nil, types.ErrDuplicateResponse
		}
		if !donor.Active || !compat.CanDonate(donor.BloodType, req.BloodType) {
			return nil, types.ErrIneligibleDonor
		}

		var distance *float64
		if lat, lon, ok := donor.Location(); ok {
			d, err := geo.Distance(req.OriginLat, req.OriginLon, lat, lon)
			if err != nil {
				return nil, err
			}
			distance = utils.Float64Ptr(d)
		}

		created = &types.Response{
			ID:          utils.NanoID(),
			RequestID:   req.ID,
			DonorID:     donorID,
			State:       types.ResponseStatePending,
			Note:        trimmed(note),
			DistanceKm:  distance,
			RespondedAt: now,
			UpdatedAt:   now,
		}
		req.Responses = append(req.Responses, created)
		req.LastActivityAt = now

		event := m.event(types.EventResponseReceived, req, []string{req.HospitalID})
		event.Payload.ResponseID = created.ID
		event.Payload.DonorID = donorID
		event.Payload.DistanceKm = distance
		event.Payload.Note = created.Note

		return []types.Event{event}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := m.donors.MarkResponded(ctx, donorID, created.RespondedAt); err != nil {
		m.logger.WithError(err).WithField("donor_id", donorID).Warn("failed to mark donor as responded")
	}

	m.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"response_id": created.ID,
		"donor_id":    donorID,
	}).Info("donor responded to request")

	return created.Clone(), nil
}

// Accept fulfils the request with one pending response. Every other pending
// response is rejected in the same step.
func (m *Manager) Accept(ctx context.Context, hospitalID, requestID, responseID string) (*types.BloodRequest, error) {
	req, err := m.mutate(ctx, requestID, transitionAccepted, func(req *types.BloodRequest, now time.Time) ([]types.Event, error) {
		if req.HospitalID != hospitalID {
			return nil, types.ErrForbidden
		}

		target := req.Response(responseID)
		if req.State.Terminal() {
			if target != nil && target.State != types.ResponseStatePending {
				return nil, fmt.Errorf("%w: %w", types.ErrRequestClosed, types.ErrResponseNotPending)
			}
			return nil, types.ErrRequestClosed
		}
		if target == nil {
			return nil, types.ErrResponseNotFound
		}
		if target.State != types.ResponseStatePending {
			return nil, types.ErrResponseNotPending
		}

		target.State = types.ResponseStateAccepted
		target.UpdatedAt = now
		rejected := m.close(req, types.RequestStateFulfilled, now)
		req.AcceptedResponseID = utils.StringPtr(target.ID)

		accepted := m.event(types.EventResponseAccepted, req, []string{target.DonorID})
		accepted.Payload.ResponseID = target.ID
		accepted.Payload.DonorID = target.DonorID
		accepted.Payload.DistanceKm = target.DistanceKm

		fulfilled := m.event(types.EventRequestFulfilled, req, []string{req.HospitalID})
		fulfilled.Payload.ResponseID = target.ID
		fulfilled.Payload.DonorID = target.DonorID

		return []types.Event{
			accepted,
			m.event(types.EventResponseRejected, req, rejected),
			fulfilled,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	target := req.Response(responseID)
	entry := m.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"response_id": responseID,
		"donor_id":    target.DonorID,
	})

	donation := &types.Donation{
		ID:          utils.NanoID(),
		RequestID:   req.ID,
		ResponseID:  target.ID,
		DonorID:     target.DonorID,
		HospitalID:  req.HospitalID,
		BloodType:   req.BloodType,
		Units:       req.UnitsNeeded,
		State:       types.DonationStateScheduled,
		ScheduledAt: target.UpdatedAt,
		CreatedAt:   target.UpdatedAt,
		UpdatedAt:   target.UpdatedAt,
	}
	if err := m.donations.SaveDonation(ctx, donation); err != nil {
		entry.WithError(err).Error("failed to schedule donation")
	}

	// the donor is committed to this donation and must not be matched again
	if err := m.donors.SetAvailability(ctx, target.DonorID, false); err != nil {
		entry.WithError(err).Warn("failed to mark accepted donor unavailable")
	}

	entry.Info("blood request fulfilled")

	return req, nil
}

// Cancel withdraws an open request on behalf of its hospital.
func (m *Manager) Cancel(ctx context.Context, hospitalID, requestID string) (*types.BloodRequest, error) {
	req, err := m.mutate(ctx, requestID, transitionCancelled, func(req *types.BloodRequest, now time.Time) ([]types.Event, error) {
		if req.HospitalID != hospitalID {
			return nil, types.ErrForbidden
		}
		if req.State.Terminal() {
			return nil, types.ErrRequestClosed
		}

		rejected := m.close(req, types.RequestStateCancelled, now)
		return []types.Event{
			m.event(types.EventResponseRejected, req, rejected),
			m.event(types.EventRequestCancelled, req, []string{req.HospitalID}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithField("request_id", requestID).Info("blood request cancelled")
	return req, nil
}

// Expire closes an open request on behalf of its hospital.
func (m *Manager) Expire(ctx context.Context, hospitalID, requestID string) (*types.BloodRequest, error) {
	return m.expire(ctx, requestID, func(req *types.BloodRequest, _ time.Time) error {
		if req.HospitalID != hospitalID {
			return types.ErrForbidden
		}
		return nil
	})
}

var errNotIdle = errors.New("request has recent activity")

// ExpireIdle expires every open request whose last activity is older than the
// idle expiry window and returns how many were expired.
func (m *Manager) ExpireIdle(ctx context.Context) (int, error) {
	if m.idleExpiry <= 0 {
		return 0, nil
	}

	open, err := m.store.OpenRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open requests: %w", err)
	}

	expired := 0
	for _, candidate := range open {
		if m.now().Sub(candidate.LastActivityAt) < m.idleExpiry {
			continue
		}

		// activity may have happened since the listing, so check again under the lock
		_, err := m.expire(ctx, candidate.ID, func(req *types.BloodRequest, now time.Time) error {
			if now.Sub(req.LastActivityAt) < m.idleExpiry {
				return errNotIdle
			}
			return nil
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, errNotIdle), errors.Is(err, types.ErrRequestNotOpen):
		default:
			return expired, err
		}
	}

	return expired, nil
}

func (m *Manager) expire(ctx context.Context, requestID string, check func(req *types.BloodRequest, now time.Time) error) (*types.BloodRequest, error) {
	req, err := m.mutate(ctx, requestID, transitionExpired, func(req *types.BloodRequest, now time.Time) ([]types.Event, error) {
		if err := check(req, now); err != nil {
			return nil, err
		}
		if req.State.Terminal() {
			return nil, types.ErrRequestClosed
		}

		rejected := m.close(req, types.RequestStateExpired, now)
		return []types.Event{
			m.event(types.EventResponseRejected, req, rejected),
			m.event(types.EventRequestExpired, req, []string{req.HospitalID}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithField("request_id", requestID).Info("blood request expired")
	return req, nil
}

// Update edits the hospital-owned fields of an open request. Units may grow
// but never shrink; the blood type cannot change.
func (m *Manager) Update(ctx context.Context, hospitalID, requestID string, update types.RequestUpdate) (*types.BloodRequest, error) {
	return m.mutate(ctx, requestID, transitionUpdated, func(req *types.BloodRequest, now time.Time) ([]types.Event, error) {
		if req.HospitalID != hospitalID {
			return nil, types.ErrForbidden
		}
		if req.State.Terminal() {
			return nil, types.ErrRequestClosed
		}

		if update.UnitsNeeded != nil {
			if *update.UnitsNeeded < req.UnitsNeeded {
				return nil, fmt.Errorf("%w: units needed cannot decrease from %d to %d", types.ErrInvalidRequest, req.UnitsNeeded, *update.UnitsNeeded)
			}
			req.UnitsNeeded = *update.UnitsNeeded
		}
		if update.Urgency != nil {
			if !update.Urgency.Valid() {
				return nil, fmt.Errorf("%w: unknown urgency %q", types.ErrInvalidRequest, *update.Urgency)
			}
			req.Urgency = *update.Urgency
		}
		if update.Description != nil {
			req.Description = trimmed(update.Description)
		}

		req.LastActivityAt = now
		return nil, nil
	})
}

func (m *Manager) Request(ctx context.Context, requestID string) (*types.BloodRequest, error) {
	return m.store.Request(ctx, requestID)
}

// ActiveRequests lists open requests, most urgent first, then newest first.
func (m *Manager) ActiveRequests(ctx context.Context) ([]*types.BloodRequest, error) {
	open, err := m.store.OpenRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		if a.Urgency.Rank() != b.Urgency.Rank() {
			return a.Urgency.Rank() > b.Urgency.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return open, nil
}

// FulfilledRequests lists the hospital's fulfilled requests, most recently
// closed first.
func (m *Manager) FulfilledRequests(ctx context.Context, hospitalID string) ([]*types.BloodRequest, error) {
	if _, err := m.hospitals.Hospital(hospitalID); err != nil {
		return nil, err
	}

	fulfilled, err := m.store.HospitalRequests(ctx, hospitalID, types.RequestStateFulfilled)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfilled requests: %w", err)
	}

	sort.SliceStable(fulfilled, func(i, j int) bool {
		a, b := utils.PtrTime(fulfilled[i].ClosedAt), utils.PtrTime(fulfilled[j].ClosedAt)
		if !a.Equal(b) {
			return a.After(b)
		}
		return fulfilled[i].ID < fulfilled[j].ID
	})
	return fulfilled, nil
}

// DonorDonations lists the donations scheduled for a donor, newest first.
func (m *Manager) DonorDonations(ctx context.Context, donorID string) ([]*types.Donation, error) {
	if _, err := m.donors.Donor(donorID); err != nil {
		return nil, err
	}
	return m.donations.DonorDonations(ctx, donorID)
}

// HospitalDonations lists the donations scheduled at a hospital, newest first.
func (m *Manager) HospitalDonations(ctx context.Context, hospitalID string) ([]*types.Donation, error) {
	if _, err := m.hospitals.Hospital(hospitalID); err != nil {
		return nil, err
	}
	return m.donations.HospitalDonations(ctx, hospitalID)
}

// EligibleDonors recomputes the ranked candidate list of an open request.
func (m *Manager) EligibleDonors(ctx context.Context, hospitalID, requestID string) ([]types.Candidate, error) {
	req, err := m.store.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.HospitalID != hospitalID {
		return nil, types.ErrForbidden
	}
	if req.State.Terminal() {
		return nil, types.ErrRequestClosed
	}
	return m.matcher.Match(req)
}

// NearbyRequests lists open requests the donor can supply, nearest first.
// maxKm <= 0 means unbounded.
func (m *Manager) NearbyRequests(ctx context.Context, donorID string, maxKm float64) ([]types.NearbyRequest, error) {
	donor, err := m.donors.Donor(donorID)
	if err != nil {
		return nil, err
	}
	lat, lon, ok := donor.Location()
	if !ok {
		return nil, fmt.Errorf("%w: donor location is unknown", types.ErrInvalidCoordinate)
	}

	open, err := m.store.OpenRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}

	out := make([]types.NearbyRequest, 0)
	for _, req := range open {
		if !compat.CanDonate(donor.BloodType, req.BloodType) {
			continue
		}
		distance, err := geo.Distance(lat, lon, req.OriginLat, req.OriginLon)
		if err != nil {
			return nil, fmt.Errorf("distance to request %s: %w", req.ID, err)
		}
		if maxKm > 0 && distance > maxKm {
			continue
		}
		out = append(out, types.NearbyRequest{Request: req, DistanceKm: distance})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Request.ID < out[j].Request.ID
	})
	return out, nil
}

// mutate runs apply on a fresh copy of the request while holding the request
// lock, saves the result and dispatches the returned events. Nothing is saved
// or dispatched if apply fails.
func (m *Manager) mutate(
	ctx context.Context,
	requestID string,
	transition string,
	apply func(req *types.BloodRequest, now time.Time) ([]types.Event, error),
) (*types.BloodRequest, error) {
	unlock := m.locks.Lock(requestID)
	defer unlock()

	req, err := m.store.Request(ctx, requestID)
	if err != nil {
		m.metrics.IncTransitionError(transition, reason(err))
		return nil, err
	}

	now := m.now()
	events, err := apply(req, now)
	if err != nil {
		m.metrics.IncTransitionError(transition, reason(err))
		return nil, err
	}
	req.UpdatedAt = now

	if err := m.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save request %s: %w", requestID, err)
	}
	m.metrics.IncTransition(transition)

	for _, event := range events {
		m.dispatcher.Dispatch(ctx, event)
	}

	return req.Clone(), nil
}

// close moves an open request into a terminal state and rejects every pending
// response. It returns the donors whose responses were rejected.
func (m *Manager) close(req *types.BloodRequest, state types.RequestState, now time.Time) []string {
	rejected := make([]string, 0)
	for _, resp := range req.Responses {
		if resp.State == types.ResponseStatePending {
			resp.State = types.ResponseStateRejected
			resp.UpdatedAt = now
			rejected = append(rejected, resp.DonorID)
		}
	}

	req.State = state
	req.ClosedAt = utils.TimePtr(now)
	req.LastActivityAt = now
	return rejected
}

func (m *Manager) event(kind types.EventKind, req *types.BloodRequest, recipients []string) types.Event {
	return types.Event{
		ID:           utils.NanoID(),
		Kind:         kind,
		RecipientIDs: recipients,
		OccurredAt:   m.now(),
		Payload: types.Payload{
			RequestID:   req.ID,
			HospitalID:  req.HospitalID,
			BloodType:   req.BloodType,
			Urgency:     req.Urgency,
			UnitsNeeded: req.UnitsNeeded,
		},
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, types.ErrRequestClosed):
		return "request_closed"
	case errors.Is(err, types.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, types.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, types.ErrDonorNotFound):
		return "donor_not_found"
	case errors.Is(err, types.ErrHospitalNotFound):
		return "hospital_not_found"
	case errors.Is(err, types.ErrRequestNotFound):
		return "request_not_found"
	case errors.Is(err, types.ErrResponseNotFound):
		return "response_not_found"
	case errors.Is(err, types.ErrResponseNotPending):
		return "response_not_pending"
	case errors.Is(err, types.ErrDuplicateResponse):
		return "duplicate_response"
	case errors.Is(err, types.ErrIneligibleDonor):
		return "ineligible_donor"
	case errors.Is(err, types.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errNotIdle):
		return "not_idle"
	default:
		return "internal"
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
