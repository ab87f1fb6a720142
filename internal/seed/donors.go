package seed

import (
	"context"
	"fmt"
	"time"

	"bloodlink/internal/registry"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"
)

type fakeDonorSeed struct {
	ID        string
	Name      string
	BloodType types.BloodType
	Available bool
	Latitude  float64
	Longitude float64
}

// A zero Latitude and Longitude marks a donor with no known location.
var fakeDonors = []fakeDonorSeed{
	{ID: "dnr0ava0williams000000000000000a", Name: "Ava Williams", BloodType: types.BloodTypeONeg, Available: true, Latitude: 51.5205, Longitude: -0.1560},
	{ID: "dnr0liam0johnson00000000000000b", Name: "Liam Johnson", BloodType: types.BloodTypeOPos, Available: true, Latitude: 51.5074, Longitude: -0.1278},
	{ID: "dnr0noah0brown0000000000000000c", Name: "Noah Brown", BloodType: types.BloodTypeANeg, Available: true, Latitude: 51.5450, Longitude: -0.1700},
	{ID: "dnr0mia0davis00000000000000000d", Name: "Mia Davis", BloodType: types.BloodTypeAPos, Available: false, Latitude: 51.4700, Longitude: -0.0900},
	{ID: "dnr0elijah0garcia0000000000000e", Name: "Elijah Garcia", BloodType: types.BloodTypeBNeg, Available: true, Latitude: 51.5150, Longitude: -0.0700},
	{ID: "dnr0olivia0miller0000000000000f", Name: "Olivia Miller", BloodType: types.BloodTypeBPos, Available: true, Latitude: 51.4900, Longitude: -0.1400},
	{ID: "dnr0ethan0moore000000000000000g", Name: "Ethan Moore", BloodType: types.BloodTypeABNeg, Available: true, Latitude: 51.5300, Longitude: -0.1000},
	{ID: "dnr0sophia0taylor0000000000000h", Name: "Sophia Taylor", BloodType: types.BloodTypeABPos, Available: true, Latitude: 51.5100, Longitude: -0.1800},
	{ID: "dnr0lucas0wilson00000000000000i", Name: "Lucas Wilson", BloodType: types.BloodTypeONeg, Available: true, Latitude: 51.4600, Longitude: -0.1100},
	{ID: "dnr0amelia0clark0000000000000j", Name: "Amelia Clark", BloodType: types.BloodTypeOPos, Available: true},
}

// Donors returns the donor fixtures.
func Donors() []*types.Donor {
	now := time.Now()
	out := make([]*types.Donor, 0, len(fakeDonors))
	for _, d := range fakeDonors {
		donor := &types.Donor{
			ID:        d.ID,
			Name:      d.Name,
			BloodType: d.BloodType,
			Available: d.Available,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if d.Latitude != 0 || d.Longitude != 0 {
			donor.Latitude = utils.Float64Ptr(d.Latitude)
			donor.Longitude = utils.Float64Ptr(d.Longitude)
			donor.LocationUpdatedAt = utils.TimePtr(now)
		}
		out = append(out, donor)
	}
	return out
}

func SeedDonors(ctx context.Context, saver registry.DonorSaver) error {
	seeded := 0
	for _, donor := range Donors() {
		if err := saver.SaveDonor(ctx, donor); err != nil {
			return fmt.Errorf("failed to upsert fake donor %s: %w", donor.ID, err)
		}
		seeded++
	}

	fmt.Printf("Fake donors seeded: %d upserted\n", seeded)
	return nil
}
