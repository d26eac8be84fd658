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

// ServiceModel is the GORM model for the services table. Offerings are
// soft-deleted so historical bookings keep a valid reference.
type ServiceModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name        string         `gorm:"not null;size:255"`
	Description string         `gorm:"size:1000"`
	PriceCents  int64          `gorm:"not null"`
	Active      bool           `gorm:"not null;default:true"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for the GORM model.
func (ServiceModel) TableName() string {
	return "services"
}

// GormServiceCatalog is the GORM-based implementation of ServiceCatalog.
type GormServiceCatalog struct {
	db *gorm.DB
}

// NewGormServiceCatalog creates a new GormServiceCatalog.
func NewGormServiceCatalog(db *gorm.DB) *GormServiceCatalog {
	return &GormServiceCatalog{db: db}
}

// FindByID retrieves a service offering by its unique identifier.
func (c *GormServiceCatalog) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.ServiceOffering, error) {
	var model ServiceModel
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Service", id.String())
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return &bookingDomain.ServiceOffering{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		PriceCents:  model.PriceCents,
		Active:      model.Active,
	}, nil
}
