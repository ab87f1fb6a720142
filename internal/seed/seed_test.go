package seed

import (
	"context"
	"io"
	"testing"

	"bloodlink/internal/registry"
	"bloodlink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySaver struct {
	hospitals map[string]*types.Hospital
	donors    map[string]*types.Donor
}

func (m *memorySaver) SaveHospital(_ context.Context, h *types.Hospital) error {
	m.hospitals[h.ID] = h
	return nil
}

func (m *memorySaver) SaveDonor(_ context.Context, d *types.Donor) error {
	m.donors[d.ID] = d
	return nil
}

func TestFixturesLoadIntoRegistry(t *testing.T) {
	hospitals := registry.NewHospitals()
	require.NoError(t, hospitals.Load(Hospitals()))
	assert.Len(t, hospitals.All(), len(fakeHospitals))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	donors := registry.New(logger)
	donors.Load(Donors())
	assert.Equal(t, len(fakeDonors), donors.Snapshot().Len())

	covered := make(map[types.BloodType]bool)
	for _, d := range Donors() {
		assert.True(t, d.BloodType.Valid(), d.ID)
		covered[d.BloodType] = true
	}
	assert.Len(t, covered, len(types.AllBloodTypes), "every blood type has a donor")
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	saver := &memorySaver{hospitals: map[string]*types.Hospital{}, donors: map[string]*types.Donor{}}

	for range 2 {
		require.NoError(t, SeedHospitals(ctx, saver))
		require.NoError(t, SeedDonors(ctx, saver))
	}

	assert.Len(t, saver.hospitals, len(fakeHospitals))
	assert.Len(t, saver.donors, len(fakeDonors))
}
