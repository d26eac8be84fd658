package booking

import (
	"time"

	"github.com/google/uuid"
)

// TransitionPayload is the closed shape of one audit entry. It is stored as a
// jsonb column but constructed and read only through this type. StatusFrom is
// empty for the creation entry and equals StatusTo for a provider rejection.
type TransitionPayload struct {
	StatusFrom       BookingStatus `json:"status_from,omitempty"`
	StatusTo         BookingStatus `json:"status_to"`
	ProviderFrom     *uuid.UUID    `json:"provider_from,omitempty"`
	ProviderTo       *uuid.UUID    `json:"provider_to,omitempty"`
	Reason           string        `json:"reason,omitempty"`
	TriggeredByAdmin bool          `json:"triggered_by_admin,omitempty"`
}

// TransitionRecord is one immutable audit-log entry for a booking. Records are
// append-only and are deleted only as a cascade of a hard booking deletion.
type TransitionRecord struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Payload   TransitionPayload
	ChangedBy uuid.UUID
	CreatedAt time.Time
}

// NewTransitionRecord creates an audit entry for the given booking and actor.
func NewTransitionRecord(bookingID uuid.UUID, payload TransitionPayload, changedBy uuid.UUID) TransitionRecord {
	return TransitionRecord{
		ID:        uuid.New(),
		BookingID: bookingID,
		Payload:   payload,
		ChangedBy: changedBy,
		CreatedAt: time.Now().UTC(),
	}
}

// ProviderActionType is a provider's recorded response to a booking.
type ProviderActionType string

const (
	ProviderActionAccepted  ProviderActionType = "ACCEPTED"
	ProviderActionRejected  ProviderActionType = "REJECTED"
	ProviderActionCompleted ProviderActionType = "COMPLETED"
)

// ProviderAction records a provider's response to a specific booking.
// A REJECTED action permanently hides the booking from that provider's
// listings; there is no expiry.
type ProviderAction struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	ProviderID uuid.UUID
	Action     ProviderActionType
	CreatedAt  time.Time
}

// NewProviderAction creates a provider action record for the given booking.
func NewProviderAction(bookingID, providerID uuid.UUID, action ProviderActionType) ProviderAction {
	return ProviderAction{
		ID:         uuid.New(),
		BookingID:  bookingID,
		ProviderID: providerID,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}
}
