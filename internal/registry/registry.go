// Package registry is the authoritative in-process store of donor availability
// and location, and of hospital locations used as request origins.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bloodlink/internal/geo"
	"bloodlink/internal/keylock"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// DonorSaver persists donor writes. The Postgres donor repository implements it.
type DonorSaver interface {
	SaveDonor(ctx context.Context, donor *types.Donor) error
}

// Registry keeps donors copy-on-write: a stored *types.Donor is never mutated
// after it is published, so snapshots can share pointers without locking.
type Registry struct {
	logger *logrus.Logger
	saver  DonorSaver
	now    func() time.Time

	mu     sync.RWMutex
	donors map[string]*types.Donor

	// per-donor write serialization
	locks *keylock.Locker
}

type Option func(*Registry)

func WithSaver(saver DonorSaver) Option {
	return func(r *Registry) {
		r.saver = saver
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func New(logger *logrus.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger: logger,
		now:    time.Now,
		donors: make(map[string]*types.Donor),
		locks:  keylock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load hydrates the registry from persisted donors without writing them back.
func (r *Registry) Load(donors []*types.Donor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range donors {
		r.donors[d.ID] = d.Clone()
	}
}

// Register adds a new donor. Donors are never removed, only deactivated.
func (r *Registry) Register(ctx context.Context, donor *types.Donor) error {
	if !donor.BloodType.Valid() {
		return fmt.Errorf("%w: unknown blood type %q", types.ErrInvalidRequest, donor.BloodType)
	}
	if strings.TrimSpace(donor.Name) == "" {
		return fmt.Errorf("%w: donor name is required", types.ErrInvalidRequest)
	}
	if (donor.Latitude == nil) != (donor.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", types.ErrInvalidCoordinate)
	}
	if lat, lon, ok := donor.Location(); ok {
		if err := geo.Validate(lat, lon); err != nil {
			return err
		}
	}

	next := donor.Clone()
	if next.ID == "" {
		next.ID = utils.NanoID()
	}

	unlock := r.locks.Lock(next.ID)
	defer unlock()

	r.mu.RLock()
	_, exists := r.donors[next.ID]
	r.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: donor %s already registered", types.ErrInvalidRequest, next.ID)
	}

	now := r.now()
	next.Active = true
	next.CreatedAt = now
	next.UpdatedAt = now
	if _, _, ok := next.Location(); ok && next.LocationUpdatedAt == nil {
		next.LocationUpdatedAt = utils.TimePtr(now)
	}

	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.mu.Lock()
	r.donors[next.ID] = next
	r.mu.Unlock()

	*donor = *next.Clone()

	r.logger.WithFields(logrus.Fields{
		"donor_id":   next.ID,
		"blood_type": next.BloodType,
	}).Info("donor registered")

	return nil
}

func (r *Registry) Donor(donorID string) (*types.Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.donors[donorID]
	if !ok {
		return nil, types.ErrDonorNotFound
	}
	return d.Clone(), nil
}

func (r *Registry) SetAvailability(ctx context.Context, donorID string, available bool) error {
	return r.update(ctx, donorID, func(d *types.Donor) error {
		d.Available = available
		return nil
	})
}

// UpdateLocation records the donor's coordinates and bumps the location timestamp.
// Stale locations are left in place; the matcher decides what is too old.
func (r *Registry) UpdateLocation(ctx context.Context, donorID string, lat, lon float64) error {
	if err := geo.Validate(lat, lon); err != nil {
		return err
	}
	return r.update(ctx, donorID, func(d *types.Donor) error {
		d.Latitude = utils.Float64Ptr(lat)
		d.Longitude = utils.Float64Ptr(lon)
		d.LocationUpdatedAt = utils.TimePtr(r.now())
		return nil
	})
}

func (r *Registry) Deactivate(ctx context.Context, donorID string) error {
	return r.update(ctx, donorID, func(d *types.Donor) error {
		d.Active = false
		d.Available = false
		return nil
	})
}

func (r *Registry) MarkResponded(ctx context.Context, donorID string, at time.Time) error {
	return r.update(ctx, donorID, func(d *types.Donor) error {
		d.LastRespondedAt = utils.TimePtr(at)
		return nil
	})
}

func (r *Registry) update(ctx context.Context, donorID string, mutate func(d *types.Donor) error) error {
	unlock := r.locks.Lock(donorID)
	defer unlock()

	r.mu.RLock()
	current, ok := r.donors[donorID]
	r.mu.RUnlock()
	if !ok {
		return types.ErrDonorNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.UpdatedAt = r.now()

	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.mu.Lock()
	r.donors[donorID] = next
	r.mu.Unlock()

	return nil
}

func (r *Registry) persist(ctx context.Context, donor *types.Donor) error {
	if r.saver == nil {
		return nil
	}
	return utils.ErrorWrapOrNil(r.saver.SaveDonor(ctx, donor), "failed to persist donor "+donor.ID)
}

// Snapshot captures a consistent, read-only view of every donor.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	donors := make([]*types.Donor, 0, len(r.donors))
	for _, d := range r.donors {
		donors = append(donors, d)
	}
	r.mu.RUnlock()

	sort.Slice(donors, func(i, j int) bool {
		return donors[i].ID < donors[j].ID
	})

	return &Snapshot{donors: donors, takenAt: r.now()}
}

// FindAvailable queries the current registry state. See Snapshot.FindAvailable.
func (r *Registry) FindAvailable(bloodType types.BloodType, originLat, originLon, maxDistanceKm float64) ([]types.Candidate, error) {
	return r.Snapshot().FindAvailable(bloodType, originLat, originLon, maxDistanceKm)
}

type Snapshot struct {
	donors  []*types.Donor
	takenAt time.Time
}

func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

func (s *Snapshot) Len() int {
	return len(s.donors)
}

// FindAvailable returns active, available donors of exactly bloodType with a
// known location within maxDistanceKm of the origin (maxDistanceKm <= 0 means
// unbounded), ascending by distance with ties broken by donor ID.
func (s *Snapshot) FindAvailable(bloodType types.BloodType, originLat, originLon, maxDistanceKm float64) ([]types.Candidate, error) {
	if err := geo.Validate(originLat, originLon); err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0)
	for _, d := range s.donors {
		if !d.Active || !d.Available || d.BloodType != bloodType {
			continue
		}

		lat, lon, ok := d.Location()
		if !ok {
			continue
		}

		distance, err := geo.Distance(originLat, originLon, lat, lon)
		if err != nil {
			return nil, fmt.Errorf("distance to donor %s: %w", d.ID, err)
		}

		if maxDistanceKm > 0 && distance > maxDistanceKm {
			continue
		}

		out = append(out, types.Candidate{Donor: d.Clone(), DistanceKm: distance})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})

	return out, nil
}

// Less orders candidates by distance, then donor ID.
func Less(a, b types.Candidate) bool {
	if a.DistanceKm != b.DistanceKm {
		return a.DistanceKm < b.DistanceKm
	}
	return a.Donor.ID < b.Donor.ID
}
