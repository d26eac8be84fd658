package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicBookingEvents carries all booking lifecycle events. The notification
// service consumes it to send customer/provider emails.
const TopicBookingEvents = "booking.events"

// Booking event types.
const (
	BookingCreated      = "booking.created"
	BookingAssigned     = "booking.assigned"
	BookingStarted      = "booking.started"
	BookingCompleted    = "booking.completed"
	BookingCancelled    = "booking.cancelled"
	BookingRejected     = "booking.rejected"
	BookingAdminUpdated = "booking.admin_updated"
	BookingDeleted      = "booking.deleted"
)

// BookingEvent is the payload published for every lifecycle change. It is
// dispatched only after the owning transaction has committed.
type BookingEvent struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	ProviderID  *uuid.UUID `json:"provider_id,omitempty"`
	ServiceID   uuid.UUID  `json:"service_id"`
	StatusFrom  string     `json:"status_from,omitempty"`
	StatusTo    string     `json:"status_to,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	TriggeredBy uuid.UUID  `json:"triggered_by"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// CloudEvent is the envelope every published message is wrapped in.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// NewCloudEvent wraps data in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data interface{}) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return CloudEvent{
		ID:          uuid.New().String(),
		Source:      source,
		SpecVersion: "1.0",
		Type:        eventType,
		Time:        time.Now().UTC(),
		Data:        raw,
	}, nil
}

// ParseCloudEvent decodes a CloudEvent envelope from raw bytes.
func ParseCloudEvent(raw []byte) (CloudEvent, error) {
	var ce CloudEvent
	if err := json.Unmarshal(raw, &ce); err != nil {
		return CloudEvent{}, fmt.Errorf("failed to parse cloud event: %w", err)
	}
	return ce, nil
}

// ParseData decodes the event data into v.
func (e CloudEvent) ParseData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}
