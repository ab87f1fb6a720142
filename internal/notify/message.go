package notify

import (
	"fmt"

	"bloodlink/pkg/types"
)

// Render builds the user-facing notification for one recipient of an event.
func Render(event types.Event, recipientID string) types.Notification {
	title, message := content(event)
	return types.Notification{
		EventID:     event.ID,
		RecipientID: recipientID,
		Kind:        event.Kind,
		Title:       title,
		Message:     message,
		RequestID:   event.Payload.RequestID,
		CreatedAt:   event.OccurredAt,
	}
}

func content(event types.Event) (title, message string) {
	p := event.Payload

	switch event.Kind {
	case types.EventRequestCreated:
		if p.Urgency == types.UrgencyCritical {
			return "Emergency Blood Request",
				fmt.Sprintf("URGENT: a hospital near you needs %s blood immediately (%s)", p.BloodType, units(p.UnitsNeeded))
		}
		return "New Blood Request",
			fmt.Sprintf("A hospital near you needs %s of %s blood", units(p.UnitsNeeded), p.BloodType)

	case types.EventResponseReceived:
		if p.DistanceKm != nil {
			return "Donation Response",
				fmt.Sprintf("A donor %.1f km away has responded to your %s request", *p.DistanceKm, p.BloodType)
		}
		return "Donation Response", fmt.Sprintf("A donor has responded to your %s request", p.BloodType)

	case types.EventResponseAccepted:
		return "Response Accepted", "The hospital accepted your response. Please head to the hospital to donate."

	case types.EventResponseRejected:
		return "Request Closed", "This blood request no longer needs your donation. Thank you for responding."

	case types.EventRequestFulfilled:
		return "Request Fulfilled", fmt.Sprintf("Your %s request has been fulfilled", p.BloodType)

	case types.EventRequestExpired:
		return "Request Expired", fmt.Sprintf("Your %s request expired without being fulfilled", p.BloodType)

	case types.EventRequestCancelled:
		return "Request Cancelled", fmt.Sprintf("Your %s request was cancelled", p.BloodType)

	default:
		return "Notification", string(event.Kind)
	}
}

func units(n int) string {
	if n == 1 {
		return "1 unit"
	}
	return fmt.Sprintf("%d units", n)
}
