package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfix/service-booking/internal/domain"
	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
	"github.com/urbanfix/service-booking/internal/events"
)

const (
	reasonAdminOverride = "Admin override"
	reasonAdminAssigned = "Provider assigned by admin"
	reasonAdminCancel   = "Cancelled by admin"
	reasonBulkUpdate    = "Bulk update by admin"
)

// AdminUpdateRequest is a partial booking update applied by an admin,
// bypassing the transition guard. Empty fields leave the current value
// untouched; ClearProvider un-assigns the provider.
type AdminUpdateRequest struct {
	Status        string     `json:"status"`
	ProviderID    *uuid.UUID `json:"provider_id"`
	ClearProvider bool       `json:"clear_provider"`
	Reason        string     `json:"reason"`
}

// BulkUpdateResult reports which of the requested bookings were updated.
// Requested ids that did not resolve to an existing booking are skipped.
type BulkUpdateResult struct {
	UpdatedIDs []uuid.UUID `json:"updated_booking_ids"`
}

// BookingStatsDTO holds aggregate booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	Pending      int64 `json:"pending"`
	Assigned     int64 `json:"assigned"`
	InProgress   int64 `json:"in_progress"`
	Completed    int64 `json:"completed"`
	Cancelled    int64 `json:"cancelled"`
	Total        int64 `json:"total"`
	RevenueCents int64 `json:"revenue_cents"`
}

// TransitionRecordDTO is the response representation of one audit entry.
type TransitionRecordDTO struct {
	ID        uuid.UUID                       `json:"id"`
	BookingID uuid.UUID                       `json:"booking_id"`
	Payload   bookingDomain.TransitionPayload `json:"payload"`
	ChangedBy uuid.UUID                       `json:"changed_by"`
	CreatedAt time.Time                       `json:"created_at"`
}

// AdminService carries the admin-only booking operations: guard-bypassing
// updates, hard deletes with cascades, bulk updates and statistics. Every
// audit entry it writes is flagged as triggered by an admin.
type AdminService struct {
	uow       bookingDomain.UnitOfWork
	publisher EventPublisher
	logger    *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(uow bookingDomain.UnitOfWork, publisher EventPublisher, logger *zap.Logger) *AdminService {
	return &AdminService{uow: uow, publisher: publisher, logger: logger}
}

func requireAdmin(actor bookingDomain.Actor, operation string) error {
	if !actor.Role.IsAdmin() {
		return domain.NewUnauthorizedError(actor.ID.String(), operation)
	}
	return nil
}

// ForceUpdateBooking applies a partial update to any booking, bypassing the
// transition guard entirely.
func (s *AdminService) ForceUpdateBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, req AdminUpdateRequest) (*BookingDTO, error) {
	if err := requireAdmin(actor, "force-update bookings"); err != nil {
		return nil, err
	}

	override, err := toOverride(req, reasonAdminOverride)
	if err != nil {
		return nil, err
	}

	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err = s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()
		providerFrom := bk.ProviderID()

		bk.ApplyOverride(override)

		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom:       from,
			StatusTo:         bk.Status(),
			ProviderFrom:     providerFrom,
			ProviderTo:       bk.ProviderID(),
			Reason:           override.Reason,
			TriggeredByAdmin: true,
		}, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishAdmin(ctx, events.BookingAdminUpdated, bk, from, override.Reason, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// AssignProvider assigns a provider to a booking from any state (admin bypass).
func (s *AdminService) AssignProvider(ctx context.Context, actor bookingDomain.Actor, bookingID, providerID uuid.UUID) (*BookingDTO, error) {
	if err := requireAdmin(actor, "assign providers"); err != nil {
		return nil, err
	}
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}

	status := bookingDomain.StatusAssigned
	override := bookingDomain.Override{
		Status:     &status,
		ProviderID: &providerID,
		Reason:     reasonAdminAssigned,
	}

	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()
		providerFrom := bk.ProviderID()

		bk.ApplyOverride(override)

		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom:       from,
			StatusTo:         bookingDomain.StatusAssigned,
			ProviderFrom:     providerFrom,
			ProviderTo:       bk.ProviderID(),
			Reason:           reasonAdminAssigned,
			TriggeredByAdmin: true,
		}, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishAdmin(ctx, events.BookingAssigned, bk, from, reasonAdminAssigned, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels any not-yet-cancelled booking (admin bypass).
func (s *AdminService) CancelBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	if err := requireAdmin(actor, "cancel bookings"); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = reasonAdminCancel
	}

	var bk *bookingDomain.Booking
	var from bookingDomain.BookingStatus

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.Status() == bookingDomain.StatusCancelled {
			return domain.NewConflictError("booking is already cancelled")
		}
		from = bk.Status()

		status := bookingDomain.StatusCancelled
		bk.ApplyOverride(bookingDomain.Override{Status: &status, Reason: reason})

		if err := repos.Bookings().Update(ctx, bk, from); err != nil {
			return err
		}

		record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
			StatusFrom:       from,
			StatusTo:         bookingDomain.StatusCancelled,
			Reason:           reason,
			TriggeredByAdmin: true,
		}, actor.ID)
		return repos.TransitionLogs().Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishAdmin(ctx, events.BookingCancelled, bk, from, reason, actor.ID)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking hard-deletes a booking together with its audit trail and
// provider actions, all in one transaction.
func (s *AdminService) DeleteBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) error {
	if err := requireAdmin(actor, "delete bookings"); err != nil {
		return err
	}

	var bk *bookingDomain.Booking

	err := s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		var err error
		bk, err = repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if err := repos.TransitionLogs().DeleteByBooking(ctx, bookingID); err != nil {
			return err
		}
		if err := repos.ProviderActions().DeleteByBooking(ctx, bookingID); err != nil {
			return err
		}
		return repos.Bookings().Delete(ctx, bookingID)
	})
	if err != nil {
		return err
	}

	s.publishAdmin(ctx, events.BookingDeleted, bk, bk.Status(), "", actor.ID)
	return nil
}

// BulkUpdateBookings applies the same partial update to every existing
// booking among the given ids, writing one audit entry per updated booking.
// Missing ids are skipped; the whole batch commits or rolls back as one
// transaction. When none of the ids resolve, the result is a no-op.
func (s *AdminService) BulkUpdateBookings(ctx context.Context, actor bookingDomain.Actor, bookingIDs []uuid.UUID, req AdminUpdateRequest) (*BulkUpdateResult, error) {
	if err := requireAdmin(actor, "bulk-update bookings"); err != nil {
		return nil, err
	}

	override, err := toOverride(req, reasonBulkUpdate)
	if err != nil {
		return nil, err
	}

	var updated []*bookingDomain.Booking
	var fromStatuses []bookingDomain.BookingStatus

	err = s.uow.WithinTx(ctx, func(repos bookingDomain.TxRepos) error {
		bookings, err := repos.Bookings().FindByIDs(ctx, bookingIDs)
		if err != nil {
			return err
		}

		for _, bk := range bookings {
			from := bk.Status()
			providerFrom := bk.ProviderID()

			bk.ApplyOverride(override)

			if err := repos.Bookings().Update(ctx, bk, from); err != nil {
				return err
			}

			record := bookingDomain.NewTransitionRecord(bk.ID(), bookingDomain.TransitionPayload{
				StatusFrom:       from,
				StatusTo:         bk.Status(),
				ProviderFrom:     providerFrom,
				ProviderTo:       bk.ProviderID(),
				Reason:           override.Reason,
				TriggeredByAdmin: true,
			}, actor.ID)
			if err := repos.TransitionLogs().Append(ctx, record); err != nil {
				return err
			}

			updated = append(updated, bk)
			fromStatuses = append(fromStatuses, from)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &BulkUpdateResult{UpdatedIDs: make([]uuid.UUID, 0, len(updated))}
	for i, bk := range updated {
		result.UpdatedIDs = append(result.UpdatedIDs, bk.ID())
		s.publishAdmin(ctx, events.BookingAdminUpdated, bk, fromStatuses[i], override.Reason, actor.ID)
	}
	return result, nil
}

// ListAllBookings returns a filtered, paginated list of all bookings.
func (s *AdminService) ListAllBookings(ctx context.Context, actor bookingDomain.Actor, query ListQuery) (*domain.PaginatedResult[BookingDTO], error) {
	if err := requireAdmin(actor, "list all bookings"); err != nil {
		return nil, err
	}

	filter, err := toListFilter(query)
	if err != nil {
		return nil, err
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

// GetBookingStats returns per-status counts, the total and the revenue over
// completed bookings, optionally bounded by a scheduled-date range.
func (s *AdminService) GetBookingStats(ctx context.Context, actor bookingDomain.Actor, from, to *time.Time) (*BookingStatsDTO, error) {
	if err := requireAdmin(actor, "view booking stats"); err != nil {
		return nil, err
	}

	stats, err := s.uow.Bookings().Stats(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &BookingStatsDTO{
		Pending:      stats.Pending,
		Assigned:     stats.Assigned,
		InProgress:   stats.InProgress,
		Completed:    stats.Completed,
		Cancelled:    stats.Cancelled,
		Total:        stats.Total,
		RevenueCents: stats.RevenueCents,
	}, nil
}

// GetBookingLogs returns a booking's audit trail, newest first.
func (s *AdminService) GetBookingLogs(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) ([]TransitionRecordDTO, error) {
	if err := requireAdmin(actor, "view booking logs"); err != nil {
		return nil, err
	}

	records, err := s.uow.TransitionLogs().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]TransitionRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = TransitionRecordDTO{
			ID:        r.ID,
			BookingID: r.BookingID,
			Payload:   r.Payload,
			ChangedBy: r.ChangedBy,
			CreatedAt: r.CreatedAt,
		}
	}
	return dtos, nil
}

// --- Helpers ---

func toOverride(req AdminUpdateRequest, defaultReason string) (bookingDomain.Override, error) {
	override := bookingDomain.Override{
		ProviderID:    req.ProviderID,
		ClearProvider: req.ClearProvider,
		Reason:        req.Reason,
	}
	if override.Reason == "" {
		override.Reason = defaultReason
	}
	if req.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(req.Status)
		if err != nil {
			return bookingDomain.Override{}, domain.NewValidationError(err.Error())
		}
		override.Status = &status
	}
	return override, nil
}

func (s *AdminService) publishAdmin(
	ctx context.Context,
	eventType string,
	bk *bookingDomain.Booking,
	from bookingDomain.BookingStatus,
	reason string,
	adminID uuid.UUID,
) {
	evt := events.BookingEvent{
		BookingID:   bk.ID(),
		CustomerID:  bk.CustomerID(),
		ProviderID:  bk.ProviderID(),
		ServiceID:   bk.ServiceID(),
		StatusFrom:  string(from),
		StatusTo:    string(bk.Status()),
		Reason:      reason,
		TriggeredBy: adminID,
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
