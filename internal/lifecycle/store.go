package lifecycle

import (
	"context"
	"sort"
	"sync"

	"bloodlink/pkg/types"
)

// Store persists blood requests together with their responses. Requests
// returned by a Store are owned by the caller and may be mutated freely.
type Store interface {
	Request(ctx context.Context, requestID string) (*types.BloodRequest, error)
	SaveRequest(ctx context.Context, req *types.BloodRequest) error
	OpenRequests(ctx context.Context) ([]*types.BloodRequest, error)
	// HospitalRequests lists a hospital's requests in the given state.
	HospitalRequests(ctx context.Context, hospitalID string, state types.RequestState) ([]*types.BloodRequest, error)
}

// MemoryStore is a Store backed by a map. It is the default when no database
// is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*types.BloodRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*types.BloodRequest)}
}

func (s *MemoryStore) Request(_ context.Context, requestID string) (*types.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (s *MemoryStore) SaveRequest(_ context.Context, req *types.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *MemoryStore) OpenRequests(_ context.Context) ([]*types.BloodRequest, error) {
	s.mu.RLock()
	out := make([]*types.BloodRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if req.State == types.RequestStateOpen {
			out = append(out, req.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) HospitalRequests(_ context.Context, hospitalID string, state types.RequestState) ([]*types.BloodRequest, error) {
	s.mu.RLock()
	out := make([]*types.BloodRequest, 0)
	for _, req := range s.requests {
		if req.HospitalID == hospitalID && req.State == state {
			out = append(out, req.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}
