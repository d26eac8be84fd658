package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows and paginates booking listings.
type ListFilter struct {
	Status     *BookingStatus
	CustomerID *uuid.UUID
	ProviderID *uuid.UUID
	ServiceID  *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time

	// ExcludeIDs removes specific bookings from the result, used for the
	// per-provider rejection filter.
	ExcludeIDs []uuid.UUID

	Page  int
	Limit int
}

// Stats holds aggregate booking counts plus revenue over completed bookings.
type Stats struct {
	Pending      int64
	Assigned     int64
	InProgress   int64
	Completed    int64
	Cancelled    int64
	Total        int64
	RevenueCents int64
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDs retrieves the bookings that exist among the given ids.
	// Missing ids are omitted, not an error.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Booking, error)

	// ExistsPendingDuplicate reports whether a PENDING booking already exists
	// for the same customer, service and scheduled date.
	ExistsPendingDuplicate(ctx context.Context, customerID, serviceID uuid.UUID, scheduledDate time.Time) (bool, error)

	// List retrieves bookings matching the filter with pagination.
	List(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)

	// Create persists a new booking.
	Create(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking. The write succeeds only
	// if the stored status still equals expectedStatus; a concurrent
	// transition surfaces as a retryable conflict.
	Update(ctx context.Context, b *Booking, expectedStatus BookingStatus) error

	// Delete hard-deletes a booking row.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats returns per-status counts, the total count and the revenue over
	// completed bookings, optionally bounded by a scheduled-date range.
	Stats(ctx context.Context, from, to *time.Time) (*Stats, error)
}

// TransitionLogRepository is the append-only audit-log store.
type TransitionLogRepository interface {
	// Append writes one audit entry.
	Append(ctx context.Context, record TransitionRecord) error

	// ListByBooking returns a booking's audit trail, newest first.
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]TransitionRecord, error)

	// DeleteByBooking removes all entries for a booking (hard-delete cascade only).
	DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error
}

// ProviderActionRepository stores provider responses to bookings.
type ProviderActionRepository interface {
	// Append writes one provider action.
	Append(ctx context.Context, action ProviderAction) error

	// RejectedBookingIDs returns the ids of bookings the provider has rejected.
	RejectedBookingIDs(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error)

	// DeleteByBooking removes all actions for a booking (hard-delete cascade only).
	DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error
}

// TxRepos exposes the repositories bound to one transactional scope.
type TxRepos interface {
	Bookings() BookingRepository
	TransitionLogs() TransitionLogRepository
	ProviderActions() ProviderActionRepository
}

// UnitOfWork is the transactional-scope port. The embedded TxRepos view runs
// in autocommit mode for plain reads; WithinTx runs fn inside one atomic
// transaction that commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	TxRepos

	WithinTx(ctx context.Context, fn func(repos TxRepos) error) error
}
