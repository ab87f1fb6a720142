// Package geo computes great-circle distances between coordinates.
package geo

import (
	"fmt"
	"math"

	"bloodlink/internal/utils"
	"bloodlink/pkg/types"
)

const EarthRadiusKm = 6371.0

// Validate reports ErrInvalidCoordinate for points outside the valid
// latitude/longitude ranges.
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", types.ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", types.ErrInvalidCoordinate, lon)
	}
	return nil
}

// Distance returns the haversine distance in kilometers between two points
// given in decimal degrees, rounded to one decimal place.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := Validate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := Validate(lat2, lon2); err != nil {
		return 0, err
	}

	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}

	phi1, phi2 := radians(lat1), radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return utils.RoundFloat64(EarthRadiusKm*c, 1), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
