package matcher

import (
	"context"
	"io"
	"testing"
	"time"

	"bloodlink/internal/metrics"
	"bloodlink/internal/registry"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, opts ...registry.Option) *registry.Registry {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return registry.New(logger, opts...)
}

func register(t *testing.T, reg *registry.Registry, id string, bt types.BloodType, lonDeg float64) {
	t.Helper()
	require.NoError(t, reg.Register(context.Background(), &types.Donor{
		ID:        id,
		Name:      id,
		BloodType: bt,
		Available: true,
		Latitude:  utils.Float64Ptr(0),
		Longitude: utils.Float64Ptr(lonDeg),
	}))
}

func request(bt types.BloodType, urgency types.Urgency) *types.BloodRequest {
	return &types.BloodRequest{ID: "r1", BloodType: bt, Urgency: urgency, UnitsNeeded: 1}
}

func ids(candidates []types.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Donor.ID
	}
	return out
}

func TestMatch_MergesAcrossTypesByDistance(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "o-neg-far", types.BloodTypeONeg, 0.3)  // 33.4 km
	register(t, reg, "o-pos-near", types.BloodTypeOPos, 0.1) // 11.1 km
	register(t, reg, "o-pos-mid", types.BloodTypeOPos, 0.2)  // 22.2 km
	register(t, reg, "o-neg-mid", types.BloodTypeONeg, 0.2)  // 22.2 km
	register(t, reg, "ab-pos", types.BloodTypeABPos, 0.01)   // incompatible with O+

	m := New(reg, DefaultPolicy(), nil)
	got, err := m.Match(request(types.BloodTypeOPos, types.UrgencyNormal))
	require.NoError(t, err)

	assert.Equal(t, []string{"o-pos-near", "o-neg-mid", "o-pos-mid", "o-neg-far"}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}
}

func TestMatch_CriticalWidensRadius(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "near", types.BloodTypeONeg, 0.1) // 11.1 km
	register(t, reg, "far", types.BloodTypeONeg, 0.3)  // 33.4 km

	m := New(reg, Policy{RadiusKm: 20, CriticalMultiplier: 2}, nil)

	assert.Equal(t, 20.0, m.Radius(types.UrgencyNormal))
	assert.Equal(t, 20.0, m.Radius(types.UrgencyUrgent))
	assert.Equal(t, 40.0, m.Radius(types.UrgencyCritical))

	for _, urgency := range []types.Urgency{types.UrgencyNormal, types.UrgencyUrgent} {
		got, err := m.Match(request(types.BloodTypeONeg, urgency))
		require.NoError(t, err)
		assert.Equal(t, []string{"near"}, ids(got), "urgency %s", urgency)
	}

	got, err := m.Match(request(types.BloodTypeONeg, types.UrgencyCritical))
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "far"}, ids(got))
}

func TestMatch_UnboundedByDefault(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "antipode", types.BloodTypeONeg, 179.9)

	m := New(reg, DefaultPolicy(), nil)
	assert.Equal(t, 0.0, m.Radius(types.UrgencyCritical))

	got, err := m.Match(request(types.BloodTypeABPos, types.UrgencyNormal))
	require.NoError(t, err)
	assert.Equal(t, []string{"antipode"}, ids(got))
}

func TestMatch_EmptyIsNotAnError(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "ab-pos", types.BloodTypeABPos, 0.1)

	m := New(reg, DefaultPolicy(), nil)
	got, err := m.Match(request(types.BloodTypeONeg, types.UrgencyCritical))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMatch_ExcludesStaleLocations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newRegistry(t, registry.WithClock(func() time.Time { return now }))

	register(t, reg, "stale", types.BloodTypeONeg, 0.1)
	now = now.Add(2 * time.Hour)
	register(t, reg, "fresh", types.BloodTypeONeg, 0.2)

	m := New(reg, Policy{MaxLocationAge: time.Hour}, nil)
	got, err := m.Match(request(types.BloodTypeONeg, types.UrgencyNormal))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids(got))

	// the stale donor is still in the registry
	_, err = reg.Donor("stale")
	require.NoError(t, err)
}

func TestMatch_RecordsCandidateMetrics(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "d1", types.BloodTypeONeg, 0.1)

	promReg := prometheus.NewRegistry()
	m := New(reg, DefaultPolicy(), metrics.New(promReg))

	_, err := m.Match(request(types.BloodTypeONeg, types.UrgencyUrgent))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(promReg, "bloodlink_match_candidates")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMerge(t *testing.T) {
	c := func(id string, d float64) types.Candidate {
		return types.Candidate{Donor: &types.Donor{ID: id}, DistanceKm: d}
	}

	got := Merge(
		[]types.Candidate{c("a", 1), c("d", 4)},
		nil,
		[]types.Candidate{c("b", 2), c("c", 2), c("e", 9)},
		[]types.Candidate{c("aa", 1)},
	)
	assert.Equal(t, []string{"a", "aa", "b", "c", "d", "e"}, ids(got))
	assert.Empty(t, Merge())
}
