package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-booking/internal/domain"
)

// Booking is the aggregate root for the booking domain. All lifecycle
// transitions go through its behavior methods, which enforce the guard rules
// for non-admin actors. Admin overrides bypass the guard via ApplyOverride.
type Booking struct {
	id            uuid.UUID
	customerID    uuid.UUID
	providerID    *uuid.UUID
	serviceID     uuid.UUID
	scheduledDate time.Time
	status        BookingStatus
	priceCents    int64
	reason        string

	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate in status PENDING. The price is
// snapshotted at creation; callers verify it against the service catalog
// before constructing the aggregate.
func NewBooking(customerID, serviceID uuid.UUID, scheduledDate time.Time, priceCents int64) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if serviceID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if scheduledDate.IsZero() {
		return nil, domain.NewValidationError("scheduled date is required")
	}
	if priceCents <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		customerID:    customerID,
		serviceID:     serviceID,
		scheduledDate: scheduledDate,
		status:        StatusPending,
		priceCents:    priceCents,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	customerID uuid.UUID,
	providerID *uuid.UUID,
	serviceID uuid.UUID,
	scheduledDate time.Time,
	status BookingStatus,
	priceCents int64,
	reason string,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		customerID:    customerID,
		providerID:    providerID,
		serviceID:     serviceID,
		scheduledDate: scheduledDate,
		status:        status,
		priceCents:    priceCents,
		reason:        reason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// ProviderID returns the assigned provider's user ID, or nil if unassigned.
func (b *Booking) ProviderID() *uuid.UUID { return b.providerID }

// ServiceID returns the booked service's ID.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// ScheduledDate returns the date the service is scheduled for.
func (b *Booking) ScheduledDate() time.Time { return b.scheduledDate }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PriceCents returns the price snapshotted at creation, in cents.
func (b *Booking) PriceCents() int64 { return b.priceCents }

// Reason returns the free-text reason attached by the last transition, if any.
func (b *Booking) Reason() string { return b.reason }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsAssignedTo returns true if the booking is assigned to the given provider.
func (b *Booking) IsAssignedTo(providerID uuid.UUID) bool {
	return b.providerID != nil && *b.providerID == providerID
}

// --- Behavior ---

// Assign transitions the booking from PENDING to ASSIGNED with the given provider.
func (b *Booking) Assign(providerID uuid.UUID) error {
	if providerID == uuid.Nil {
		return domain.NewValidationError("provider ID is required")
	}
	if !b.status.CanTransitionTo(StatusAssigned) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusAssigned))
	}
	b.providerID = &providerID
	b.status = StatusAssigned
	b.touch()
	return nil
}

// Start transitions the booking from ASSIGNED to IN_PROGRESS. Only the
// assigned provider may start the work.
func (b *Booking) Start(actor Actor) error {
	if !b.IsAssignedTo(actor.ID) {
		return domain.NewUnauthorizedError(actor.ID.String(), "start this booking")
	}
	if !b.status.CanTransitionTo(StatusInProgress) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusInProgress))
	}
	b.status = StatusInProgress
	b.touch()
	return nil
}

// Complete transitions the booking from IN_PROGRESS to COMPLETED. Only the
// assigned provider may complete the work.
func (b *Booking) Complete(actor Actor) error {
	if !b.IsAssignedTo(actor.ID) {
		return domain.NewUnauthorizedError(actor.ID.String(), "complete this booking")
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.touch()
	return nil
}

// CancelBy applies the actor-dependent cancel rules. The assigned provider
// reverts an ASSIGNED booking to PENDING and is un-assigned; the customer
// cancels terminally from any non-terminal state. Returns true when the
// cancel was a provider revert.
func (b *Booking) CancelBy(actor Actor, reason string) (reverted bool, err error) {
	if b.status.IsTerminal() {
		return false, domain.NewConflictError("completed or cancelled booking cannot be cancelled")
	}

	switch {
	case b.IsAssignedTo(actor.ID):
		if b.status != StatusAssigned {
			return false, domain.NewInvalidTransitionError(string(b.status), string(StatusPending))
		}
		b.status = StatusPending
		b.providerID = nil
		b.setReason(reason)
		b.touch()
		return true, nil

	case actor.ID == b.customerID:
		b.status = StatusCancelled
		b.setReason(reason)
		b.touch()
		return false, nil

	default:
		return false, domain.NewUnauthorizedError(actor.ID.String(), "cancel this booking")
	}
}

// Override is a partial admin update applied without guard checks. A nil
// field leaves the current value untouched; ClearProvider un-assigns.
type Override struct {
	Status        *BookingStatus
	ProviderID    *uuid.UUID
	ClearProvider bool
	Reason        string
}

// ApplyOverride applies an admin override, bypassing the transition guard.
func (b *Booking) ApplyOverride(o Override) {
	if o.Status != nil {
		b.status = *o.Status
	}
	if o.ClearProvider {
		b.providerID = nil
	} else if o.ProviderID != nil {
		id := *o.ProviderID
		b.providerID = &id
	}
	b.setReason(o.Reason)
	b.touch()
}

func (b *Booking) setReason(reason string) {
	if reason != "" {
		b.reason = reason
	}
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}
