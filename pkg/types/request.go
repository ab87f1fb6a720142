package types

import "time"

type RequestState string

const (
	RequestStateOpen      RequestState = "open"
	RequestStateFulfilled RequestState = "fulfilled"
	RequestStateExpired   RequestState = "expired"
	RequestStateCancelled RequestState = "cancelled"
)

func (s RequestState) Terminal() bool {
	return s != RequestStateOpen
}

type ResponseState string

const (
	ResponseStatePending  ResponseState = "pending"
	ResponseStateAccepted ResponseState = "accepted"
	ResponseStateRejected ResponseState = "rejected"
)

type BloodRequest struct {
	ID          string       `db:"id" json:"id"`
	HospitalID  string       `db:"hospital_id" json:"hospitalId"`
	BloodType   BloodType    `db:"blood_type" json:"bloodType"`
	UnitsNeeded int          `db:"units_needed" json:"unitsNeeded"`
	Urgency     Urgency      `db:"urgency" json:"urgency"`
	Description *string      `db:"description" json:"description,omitempty"`
	State       RequestState `db:"state" json:"state"`

	// Origin is the hospital location at creation time.
	OriginLat float64 `db:"origin_lat" json:"originLat"`
	OriginLon float64 `db:"origin_lon" json:"originLon"`

	AcceptedResponseID *string    `db:"accepted_response_id" json:"acceptedResponseId,omitempty"`
	LastActivityAt     time.Time  `db:"last_activity_at" json:"lastActivityAt"`
	ClosedAt           *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`

	Responses []*Response `db:"-" json:"responses"`
}

func (r *BloodRequest) Response(responseID string) *Response {
	for _, resp := range r.Responses {
		if resp.ID == responseID {
			return resp
		}
	}
	return nil
}

// ActiveResponse returns the donor's pending or accepted response, if any.
func (r *BloodRequest) ActiveResponse(donorID string) *Response {
	for _, resp := range r.Responses {
		if resp.DonorID == donorID && resp.State != ResponseStateRejected {
			return resp
		}
	}
	return nil
}

func (r *BloodRequest) Clone() *BloodRequest {
	out := *r
	out.Description = clonePtr(r.Description)
	out.AcceptedResponseID = clonePtr(r.AcceptedResponseID)
	out.ClosedAt = clonePtr(r.ClosedAt)
	out.Responses = make([]*Response, len(r.Responses))
	for i, resp := range r.Responses {
		out.Responses[i] = resp.Clone()
	}
	return &out
}

type Response struct {
	ID        string        `db:"id" json:"id"`
	RequestID string        `db:"request_id" json:"requestId"`
	DonorID   string        `db:"donor_id" json:"donorId"`
	State     ResponseState `db:"state" json:"state"`
	Note      *string       `db:"note" json:"note,omitempty"`

	// DistanceKm is frozen when the response is recorded; nil if the donor
	// location was unknown at that moment.
	DistanceKm *float64 `db:"distance_km" json:"distanceKm,omitempty"`

	RespondedAt time.Time `db:"responded_at" json:"respondedAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (r *Response) Clone() *Response {
	out := *r
	out.Note = clonePtr(r.Note)
	out.DistanceKm = clonePtr(r.DistanceKm)
	return &out
}

// RequestUpdate carries the hospital-editable fields of an open request.
type RequestUpdate struct {
	UnitsNeeded *int     `json:"unitsNeeded,omitempty"`
	Urgency     *Urgency `json:"urgency,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// RequestInput carries the hospital-submitted fields of a new request.
type RequestInput struct {
	BloodType   BloodType `form:"blood_type" json:"bloodType"`
	UnitsNeeded int       `form:"units_needed" json:"unitsNeeded"`
	Urgency     Urgency   `form:"urgency" json:"urgency"`
	Description *string   `form:"description" json:"description,omitempty"`
}

// NearbyRequest is an open request a donor can supply, with its distance from the donor.
type NearbyRequest struct {
	Request    *BloodRequest `json:"request"`
	DistanceKm float64       `json:"distanceKm"`
}
