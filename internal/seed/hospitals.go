package seed

import (
	"context"
	"fmt"
	"time"

	"bloodlink/internal/utils"
	"bloodlink/pkg/types"
)

type HospitalSaver interface {
	SaveHospital(ctx context.Context, hospital *types.Hospital) error
}

type fakeHospitalSeed struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
}

var fakeHospitals = []fakeHospitalSeed{
	{ID: "hsp0stmarys00000000000000000000a", Name: "St Mary's Hospital", Address: "Praed St, London W2 1NY", Latitude: 51.5171, Longitude: -0.1745},
	{ID: "hsp0royalfree0000000000000000000b", Name: "Royal Free Hospital", Address: "Pond St, London NW3 2QG", Latitude: 51.5534, Longitude: -0.1652},
	{ID: "hsp0kingscollege00000000000000000c", Name: "King's College Hospital", Address: "Denmark Hill, London SE5 9RS", Latitude: 51.4682, Longitude: -0.0937},
	{ID: "hsp0royallondon00000000000000000d", Name: "The Royal London Hospital", Address: "Whitechapel Rd, London E1 1FR", Latitude: 51.5187, Longitude: -0.0595},
}

// Hospitals returns the hospital fixtures.
func Hospitals() []*types.Hospital {
	now := time.Now()
	out := make([]*types.Hospital, 0, len(fakeHospitals))
	for _, h := range fakeHospitals {
		out = append(out, &types.Hospital{
			ID:        h.ID,
			Name:      h.Name,
			Address:   utils.StringPtr(h.Address),
			Latitude:  h.Latitude,
			Longitude: h.Longitude,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

func SeedHospitals(ctx context.Context, saver HospitalSaver) error {
	seeded := 0
	for _, hospital := range Hospitals() {
		if err := saver.SaveHospital(ctx, hospital); err != nil {
			return fmt.Errorf("failed to upsert fake hospital %s: %w", hospital.ID, err)
		}
		seeded++
	}

	fmt.Printf("Fake hospitals seeded: %d upserted\n", seeded)
	return nil
}
