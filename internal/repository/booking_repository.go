package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanfix/service-booking/internal/domain"
	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProviderID    *uuid.UUID `gorm:"type:uuid;index"`
	ServiceID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	ScheduledDate time.Time  `gorm:"index;not null"`
	Status        string     `gorm:"not null;size:20;index"`
	PriceCents    int64      `gorm:"not null"`
	Reason        string     `gorm:"size:500"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByIDs retrieves the bookings that exist among the given ids. Missing
// ids are omitted.
func (r *GormBookingRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*bookingDomain.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings by ids: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, 0, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	return bookings, nil
}

// ExistsPendingDuplicate reports whether a PENDING booking already exists for
// the same customer, service and scheduled date.
func (r *GormBookingRepository) ExistsPendingDuplicate(ctx context.Context, customerID, serviceID uuid.UUID, scheduledDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("customer_id = ? AND service_id = ? AND scheduled_date = ? AND status = ?",
			customerID, serviceID, scheduledDate, string(bookingDomain.StatusPending)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending duplicate: %w", err)
	}
	return count > 0, nil
}

// List retrieves bookings matching the filter with pagination.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.DateFrom != nil && filter.DateTo != nil {
		query = query.Where("scheduled_date BETWEEN ? AND ?", *filter.DateFrom, *filter.DateTo)
	}
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// Create persists a new booking.
func (r *GormBookingRepository) Create(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking. The write is guarded by a
// compare-and-swap on the status read at the start of the transactional
// scope; a lost-update race surfaces as a retryable conflict.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking, expectedStatus bookingDomain.BookingStatus) error {
	model := toBookingModel(bk)

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", model.ID, string(expectedStatus)).
		Updates(map[string]interface{}{
			"provider_id":    model.ProviderID,
			"status":         model.Status,
			"scheduled_date": model.ScheduledDate,
			"reason":         model.Reason,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete hard-deletes a booking row.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// Stats returns per-status counts, the total count and the revenue over
// completed bookings, optionally bounded by a scheduled-date range.
func (r *GormBookingRepository) Stats(ctx context.Context, from, to *time.Time) (*bookingDomain.Stats, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&BookingModel{})
		if from != nil && to != nil {
			q = q.Where("scheduled_date BETWEEN ? AND ?", *from, *to)
		}
		return q
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := scoped().
		Select("status, count(*) as count").
		Group("status").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	stats := &bookingDomain.Stats{}
	for _, sc := range counts {
		stats.Total += sc.Count
		switch bookingDomain.BookingStatus(sc.Status) {
		case bookingDomain.StatusPending:
			stats.Pending = sc.Count
		case bookingDomain.StatusAssigned:
			stats.Assigned = sc.Count
		case bookingDomain.StatusInProgress:
			stats.InProgress = sc.Count
		case bookingDomain.StatusCompleted:
			stats.Completed = sc.Count
		case bookingDomain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	var revenue int64
	if err := scoped().
		Where("status = ?", string(bookingDomain.StatusCompleted)).
		Select("COALESCE(SUM(price_cents), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.RevenueCents = revenue

	return stats, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.CustomerID,
		m.ProviderID,
		m.ServiceID,
		m.ScheduledDate,
		status,
		m.PriceCents,
		m.Reason,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
