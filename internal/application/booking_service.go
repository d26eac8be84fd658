package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfix/service-booking/internal/domain"
	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
	"github.com/urbanfix/service-booking/internal/events"
)

// Default audit reasons recorded when the caller supplies none.
const (
	reasonCreated   = "Booking created"
	reasonAssigned  = "Provider assigned"
	reasonStarted   = "Work started"
	reasonCompleted = "Work completed"
	reasonCancelled = "Cancelled"
	reasonRejected  = "Rejected by provider"
)

// EventPublisher is the outbound port for post-commit event dispatch.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ServiceID     uuid.UUID `json:"service_id" binding:"required"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	PriceCents    int64     `json:"price_cents" binding:"required"`
}

// ListQuery narrows booking listings from the API surface.
type ListQuery struct {
	Status     string
	CustomerID *uuid.UUID
	ProviderID *uuid.UUID
	ServiceID  *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time

	// ForProvider scopes the listing to offers visible to this provider,
	// excluding bookings the provider has rejected.
	ForProvider *uuid.UUID

	Page  int
	Limit int
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	ServiceID     uuid.UUID  `json:"service_id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Status        string     `json:"status"`
	PriceCents    int64      `json:"price_cents"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BookingService is the lifecycle engine orchestrating booking use cases.
// Every mutating operation runs inside one transactional scope: load, guard,
// mutate, audit, commit. Events are published only after the commit.
type BookingService struct {
	uow       bookingDomain.UnitOfWork
	catalog   bookingDomain.ServiceCatalog
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	uow bookingDomain.UnitOfWork,
	catalog bookingDomain.ServiceCatalog,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		uow:       uow,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBooking creates a new booking for the acting customer. The supplied
// price must equal the service's current price; a PENDING booking for the
// same customer, service and date must not already exist.
func (s *BookingService) CreateBooking(ctx context.Context, actor bookingDomain.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	offering, err := s.catalog.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if offering.PriceCents != req.PriceCents {
		return nil, domain.NewPriceMismatchError(offering.PriceCents, req.PriceCents)
	}

	bk, err := bookingDomain.NewBooking(actor.ID, req.ServiceID, req.ScheduledDate, req.PriceCents)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		exists, err := repos.Bookings().ExistsPendingDuplicate(ctx, actor.ID, req.ServiceID, req.ScheduledDate)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError("pending booking already exists for this customer and service on the selected date")
		}

		if err := repos.Bookings().Create(ctx, bk); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusTo: bookingDomain.StatusPending,
			Reason:   reasonCreated,
		}, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCreated, bk, "", bookingDomain.StatusPending, reasonCreated, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// AssignProvider assigns a provider to a PENDING booking. This is the system
// assignment path; the audit entry is attributed to the assigned provider.
func (s *BookingService) AssignProvider(ctx context.Context, bookingID, providerID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()

		if err := bk.Assign(providerID); err != nil {
			return err
		}
		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom: from,
			StatusTo:   bookingDomain.StatusAssigned,
			ProviderTo: bk.ProviderID(),
			Reason:     reasonAssigned,
		}, providerID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingAssigned, bk, from, bookingDomain.StatusAssigned, reasonAssigned, providerID)

	result := toBookingDTO(bk)
	return &result, nil
}

// StartBooking transitions an ASSIGNED booking to IN_PROGRESS. Only the
// assigned provider may do this.
func (s *BookingService) StartBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()

		if err := bk.Start(actor); err != nil {
			return err
		}
		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom: from,
			StatusTo:   bookingDomain.StatusInProgress,
			Reason:     reasonStarted,
		}, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingStarted, bk, from, bookingDomain.StatusInProgress, reasonStarted, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking transitions an IN_PROGRESS booking to COMPLETED and records
// the provider's terminal COMPLETED action.
func (s *BookingService) CompleteBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()

		if err := bk.Complete(actor); err != nil {
			return err
		}
		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom: from,
			StatusTo:   bookingDomain.StatusCompleted,
			Reason:     reasonCompleted,
		}, actor.ID)
		if err := repos.TransitionLogs().Append(ctx, record); err != nil {
			return err
		}

		action := bookingDomain.NewProviderAction(bk.ID(), actor.ID, bookingDomain.ProviderActionCompleted)
		return repos.ProviderActions().Append(ctx, action)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCompleted, bk, from, bookingDomain.StatusCompleted, reasonCompleted, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking under the actor-dependent rules: the
// assigned provider reverts an ASSIGNED booking to PENDING and is
// un-assigned; the customer cancels terminally.
func (s *BookingService) CancelBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	if reason == "" {
		reason = reasonCancelled
	}

	var bk *bookingDomain.Booking
	var from, to bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()
		providerFrom := bk.ProviderID()

		reverted, err := bk.CancelBy(actor, reason)
		if err != nil {
			return err
		}
		to = bookingDomain.StatusCancelled
		if reverted {
			to = bookingDomain.StatusPending
		}

		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		payload := bookingDomain.TransitionPayload{
			StatusFrom: from,
			StatusTo:   to,
			Reason:     reason,
		}
		if reverted {
			payload.ProviderFrom = providerFrom
		}
		record := bookingDomain.NewTransitionRecord(bk.ID(), payload, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCancelled, bk, from, to, reason, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// RejectBooking records a provider's rejection of a PENDING booking. The
// booking row is not mutated; the rejection permanently hides the booking
// from that provider's listings.
func (s *BookingService) RejectBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.Status() != bookingDomain.StatusPending {
			return domain.NewConflictError("only pending bookings can be rejected")
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom: bk.Status(),
			StatusTo:   bk.Status(),
			Reason:     reasonRejected,
		}, actor.ID)
		if err := repos.TransitionLogs().Append(ctx, record); err != nil {
			return err
		}

		action := bookingDomain.NewProviderAction(bk.ID(), actor.ID, bookingDomain.ProviderActionRejected)
		return repos.ProviderActions().Append(ctx, action)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingRejected, bk, bk.Status(), bk.Status(), reasonRejected, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.uow.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves bookings matching the query. A provider-scoped query
// excludes every booking that provider has rejected; the exclusion set is
// computed per request and never cached.
func (s *BookingService) ListBookings(ctx context.Context, query ListQuery) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := toListFilter(query)
	if err != nil {
		return nil, err
	}

	if query.ForProvider != nil {
		rejected, err := s.uow.ProviderActions().RejectedBookingIDs(ctx, *query.ForProvider)
		if err != nil {
			return nil, err
		}
		filter.ExcludeIDs = rejected
	}

	bookings, total, err := s.uow.Bookings().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, filter.Page, filter.Limit)
	return &result, nil
}

// --- Helpers ---

func toListFilter(query ListQuery) (bookingDomain.ListFilter, error) {
	filter := bookingDomain.ListFilter{
		CustomerID: query.CustomerID,
		ProviderID: query.ProviderID,
		ServiceID:  query.ServiceID,
		DateFrom:   query.DateFrom,
		DateTo:     query.DateTo,
		Page:       query.Page,
		Limit:      query.Limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if query.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(query.Status)
		if err != nil {
			return bookingDomain.ListFilter{}, domain.NewValidationError(err.Error())
		}
		filter.Status = &status
	}
	return filter, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		CustomerID:    bk.CustomerID(),
		ProviderID:    bk.ProviderID(),
		ServiceID:     bk.ServiceID(),
		ScheduledDate: bk.ScheduledDate(),
		Status:        string(bk.Status()),
		PriceCents:    bk.PriceCents(),
		Reason:        bk.Reason(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

// publish dispatches one lifecycle event after the owning transaction has
// committed. Failures are logged, never propagated: notification delivery
// must not fail a committed operation.
func (s *BookingService) publish(
	ctx context.Context,
	eventType string,
	bk *bookingDomain.Booking,
	from, to bookingDomain.BookingStatus,
	reason string,
	triggeredBy uuid.UUID,
) {
	evt := events.BookingEvent{
		BookingID:   bk.ID(),
		CustomerID:  bk.CustomerID(),
		ProviderID:  bk.ProviderID(),
		ServiceID:   bk.ServiceID(),
		StatusFrom:  string(from),
		StatusTo:    string(to),
		Reason:      reason,
		TriggeredBy: triggeredBy,
		OccurredAt:  time.Now().UTC(),
	}

	cloudEvent, err := events.NewCloudEvent("service-booking", eventType, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, events.TopicBookingEvents, bk.ID().String(), cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
}
