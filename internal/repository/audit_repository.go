package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
)

// BookingLogModel is the GORM model for the booking_logs table. The
// transition payload is stored as a jsonb document.
type BookingLogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null"`
	Log       []byte    `gorm:"type:jsonb;not null"`
	ChangedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingLogModel) TableName() string {
	return "booking_logs"
}

// ProviderActionModel is the GORM model for the booking_provider_actions table.
type ProviderActionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;not null"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null"`
	Action     string    `gorm:"not null;size:20"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ProviderActionModel) TableName() string {
	return "booking_provider_actions"
}

// GormTransitionLogRepository is the GORM-based implementation of
// TransitionLogRepository.
type GormTransitionLogRepository struct {
	db *gorm.DB
}

// NewGormTransitionLogRepository creates a new GormTransitionLogRepository.
func NewGormTransitionLogRepository(db *gorm.DB) *GormTransitionLogRepository {
	return &GormTransitionLogRepository{db: db}
}

// Append persists one transition record.
func (r *GormTransitionLogRepository) Append(ctx context.Context, rec bookingDomain.TransitionRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal transition payload: %w", err)
	}

	model := &BookingLogModel{
		ID:        rec.ID,
		BookingID: rec.BookingID,
		Log:       payload,
		ChangedBy: rec.ChangedBy,
		CreatedAt: rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append transition record: %w", err)
	}
	return nil
}

// ListByBooking retrieves all transition records for a booking, newest first.
func (r *GormTransitionLogRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]bookingDomain.TransitionRecord, error) {
	var models []BookingLogModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transition records: %w", err)
	}

	records := make([]bookingDomain.TransitionRecord, len(models))
	for i := range models {
		var payload bookingDomain.TransitionPayload
		if err := json.Unmarshal(models[i].Log, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transition payload: %w", err)
		}
		records[i] = bookingDomain.TransitionRecord{
			ID:        models[i].ID,
			BookingID: models[i].BookingID,
			Payload:   payload,
			ChangedBy: models[i].ChangedBy,
			CreatedAt: models[i].CreatedAt,
		}
	}
	return records, nil
}

// DeleteByBooking removes all transition records for a booking.
func (r *GormTransitionLogRepository) DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&BookingLogModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete transition records: %w", err)
	}
	return nil
}

// GormProviderActionRepository is the GORM-based implementation of
// ProviderActionRepository.
type GormProviderActionRepository struct {
	db *gorm.DB
}

// NewGormProviderActionRepository creates a new GormProviderActionRepository.
func NewGormProviderActionRepository(db *gorm.DB) *GormProviderActionRepository {
	return &GormProviderActionRepository{db: db}
}

// Append persists one provider action.
func (r *GormProviderActionRepository) Append(ctx context.Context, action bookingDomain.ProviderAction) error {
	model := &ProviderActionModel{
		ID:         action.ID,
		BookingID:  action.BookingID,
		ProviderID: action.ProviderID,
		Action:     string(action.Action),
		CreatedAt:  action.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append provider action: %w", err)
	}
	return nil
}

// RejectedBookingIDs returns the ids of bookings the given provider has rejected.
func (r *GormProviderActionRepository) RejectedBookingIDs(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&ProviderActionModel{}).
		Where("provider_id = ? AND action = ?", providerID, string(bookingDomain.ProviderActionRejected)).
		Pluck("booking_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list rejected booking ids: %w", err)
	}
	return ids, nil
}

// DeleteByBooking removes all provider actions for a booking.
func (r *GormProviderActionRepository) DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&ProviderActionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete provider actions: %w", err)
	}
	return nil
}
