package types

import "time"

type EventKind string

const (
	EventRequestCreated   EventKind = "request_created"
	EventResponseReceived EventKind = "response_received"
	EventResponseAccepted EventKind = "response_accepted"
	EventResponseRejected EventKind = "response_rejected"
	EventRequestFulfilled EventKind = "request_fulfilled"
	EventRequestExpired   EventKind = "request_expired"
	EventRequestCancelled EventKind = "request_cancelled"
)

// Event is a lifecycle notification addressed to one or more recipients.
type Event struct {
	ID           string    `json:"id"`
	Kind         EventKind `json:"kind"`
	RecipientIDs []string  `json:"recipientIds"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      Payload   `json:"payload"`
}

type Payload struct {
	RequestID   string    `json:"requestId"`
	HospitalID  string    `json:"hospitalId"`
	BloodType   BloodType `json:"bloodType"`
	Urgency     Urgency   `json:"urgency"`
	UnitsNeeded int       `json:"unitsNeeded"`
	ResponseID  string    `json:"responseId,omitempty"`
	DonorID     string    `json:"donorId,omitempty"`
	DistanceKm  *float64  `json:"distanceKm,omitempty"`
	Note        *string   `json:"note,omitempty"`
}

// Notification is an event rendered for a single recipient.
type Notification struct {
	EventID     string    `json:"eventId"`
	RecipientID string    `json:"recipientId"`
	Kind        EventKind `json:"kind"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RequestID   string    `json:"requestId"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
