// Package matcher ranks the donors eligible to supply a blood request.
package matcher

import (
	"fmt"
	"time"

	"bloodlink/internal/compat"
	"bloodlink/internal/metrics"
	"bloodlink/internal/registry"
	"bloodlink/pkg/types"
)

// Policy holds the matching knobs.
type Policy struct {
	// RadiusKm bounds the search around the request origin. <= 0 is unbounded.
	RadiusKm float64
	// CriticalMultiplier widens RadiusKm for critical requests.
	CriticalMultiplier float64
	// MaxLocationAge excludes donors whose location is older than this. 0 disables.
	MaxLocationAge time.Duration
}

func DefaultPolicy() Policy {
	return Policy{CriticalMultiplier: 2}
}

type Matcher struct {
	registry *registry.Registry
	policy   Policy
	metrics  *metrics.Metrics
}

func New(registry *registry.Registry, policy Policy, m *metrics.Metrics) *Matcher {
	if policy.CriticalMultiplier < 1 {
		policy.CriticalMultiplier = 1
	}
	return &Matcher{registry: registry, policy: policy, metrics: m}
}

// Radius returns the search radius for an urgency level; 0 means unbounded.
func (m *Matcher) Radius(urgency types.Urgency) float64 {
	if m.policy.RadiusKm <= 0 {
		return 0
	}
	if urgency == types.UrgencyCritical {
		return m.policy.RadiusKm * m.policy.CriticalMultiplier
	}
	return m.policy.RadiusKm
}

// Match returns eligible donors for the request ranked by ascending distance
// from its origin across all compatible blood types. No candidates is a valid
// result, not an error.
func (m *Matcher) Match(req *types.BloodRequest) ([]types.Candidate, error) {
	snap := m.registry.Snapshot()
	radius := m.Radius(req.Urgency)

	eligible := compat.EligibleDonorTypes(req.BloodType)
	lists := make([][]types.Candidate, 0, len(eligible))
	for _, bloodType := range eligible {
		found, err := snap.FindAvailable(bloodType, req.OriginLat, req.OriginLon, radius)
		if err != nil {
			return nil, fmt.Errorf("find available %s donors: %w", bloodType, err)
		}
		lists = append(lists, m.dropStale(found, snap.TakenAt()))
	}

	merged := Merge(lists...)
	m.metrics.ObserveCandidates(string(req.Urgency), len(merged))

	return merged, nil
}

func (m *Matcher) dropStale(candidates []types.Candidate, asOf time.Time) []types.Candidate {
	if m.policy.MaxLocationAge <= 0 {
		return candidates
	}

	fresh := candidates[:0]
	for _, c := range candidates {
		updated := c.Donor.LocationUpdatedAt
		if updated == nil || asOf.Sub(*updated) > m.policy.MaxLocationAge {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}

// Merge combines lists that are each sorted by registry.Less into a single
// sorted list. It never re-sorts, so per-list tie order is preserved.
func Merge(lists ...[]types.Candidate) []types.Candidate {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	out := make([]types.Candidate, 0, total)
	heads := make([]int, len(lists))
	for len(out) < total {
		best := -1
		for i, l := range lists {
			if heads[i] >= len(l) {
				continue
			}
			if best == -1 || registry.Less(l[heads[i]], lists[best][heads[best]]) {
				best = i
			}
		}
		out = append(out, lists[best][heads[best]])
		heads[best]++
	}

	return out
}
