package lifecycle

import (
	"context"
	"sort"
	"sync"

	"bloodlink/pkg/types"
)

// DonationStore keeps the donations scheduled by accepted responses. Saving a
// second donation for the same response is a no-op.
type DonationStore interface {
	SaveDonation(ctx context.Context, donation *types.Donation) error
	DonorDonations(ctx context.Context, donorID string) ([]*types.Donation, error)
	HospitalDonations(ctx context.Context, hospitalID string) ([]*types.Donation, error)
}

type MemoryDonationStore struct {
	mu         sync.RWMutex
	donations  []*types.Donation
	byResponse map[string]struct{}
}

func NewMemoryDonationStore() *MemoryDonationStore {
	return &MemoryDonationStore{byResponse: make(map[string]struct{})}
}

func (s *MemoryDonationStore) SaveDonation(_ context.Context, donation *types.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byResponse[donation.ResponseID]; ok {
		return nil
	}
	s.byResponse[donation.ResponseID] = struct{}{}
	s.donations = append(s.donations, donation.Clone())
	return nil
}

func (s *MemoryDonationStore) DonorDonations(_ context.Context, donorID string) ([]*types.Donation, error) {
	return s.filter(func(d *types.Donation) bool { return d.DonorID == donorID }), nil
}

func (s *MemoryDonationStore) HospitalDonations(_ context.Context, hospitalID string) ([]*types.Donation, error) {
	return s.filter(func(d *types.Donation) bool { return d.HospitalID == hospitalID }), nil
}

// filter returns copies of the matching donations, newest first.
func (s *MemoryDonationStore) filter(keep func(d *types.Donation) bool) []*types.Donation {
	s.mu.RLock()
	out := make([]*types.Donation, 0)
	for _, d := range s.donations {
		if keep(d) {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()

	sortDonations(out)
	return out
}

// sortDonations orders donations newest scheduled first, then by ID.
func sortDonations(donations []*types.Donation) {
	sort.SliceStable(donations, func(i, j int) bool {
		a, b := donations[i], donations[j]
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ScheduledAt.After(b.ScheduledAt)
		}
		return a.ID < b.ID
	})
}
