package types

import "time"

type DonationState string

const (
	DonationStateScheduled DonationState = "scheduled"
	DonationStateCompleted DonationState = "completed"
	DonationStateCancelled DonationState = "cancelled"
)

// Donation is scheduled when a hospital accepts a donor's response. There is
// at most one donation per accepted response.
type Donation struct {
	ID          string        `db:"id" json:"id"`
	RequestID   string        `db:"request_id" json:"requestId"`
	ResponseID  string        `db:"response_id" json:"responseId"`
	DonorID     string        `db:"donor_id" json:"donorId"`
	HospitalID  string        `db:"hospital_id" json:"hospitalId"`
	BloodType   BloodType     `db:"blood_type" json:"bloodType"`
	Units       int           `db:"units" json:"units"`
	State       DonationState `db:"state" json:"state"`
	ScheduledAt time.Time     `db:"scheduled_at" json:"scheduledAt"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

func (d *Donation) Clone() *Donation {
	out := *d
	return &out
}
