package types

import "time"

type Donor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	BloodType BloodType `db:"blood_type" json:"bloodType"`
	Available bool      `db:"is_available" json:"available"`
	Active    bool      `db:"is_active" json:"active"`

	// Latitude and Longitude are both nil when the location is unknown.
	Latitude          *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude         *float64   `db:"longitude" json:"longitude,omitempty"`
	LocationUpdatedAt *time.Time `db:"location_updated_at" json:"locationUpdatedAt,omitempty"`

	LastRespondedAt *time.Time `db:"last_responded_at" json:"lastRespondedAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// Location returns the donor's last known coordinates.
func (d *Donor) Location() (lat, lon float64, ok bool) {
	if d.Latitude == nil || d.Longitude == nil {
		return 0, 0, false
	}
	return *d.Latitude, *d.Longitude, true
}

func (d *Donor) Clone() *Donor {
	out := *d
	out.Latitude = clonePtr(d.Latitude)
	out.Longitude = clonePtr(d.Longitude)
	out.LocationUpdatedAt = clonePtr(d.LocationUpdatedAt)
	out.LastRespondedAt = clonePtr(d.LastRespondedAt)
	return &out
}

type Hospital struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Candidate is a donor ranked by distance from a request origin.
type Candidate struct {
	Donor      *Donor  `json:"donor"`
	DistanceKm float64 `json:"distanceKm"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
