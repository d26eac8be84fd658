package booking

import (
	"context"

	"github.com/google/uuid"
)

// ServiceOffering is the catalog entry a booking is made against. The engine
// only reads it at creation time to validate the price snapshot.
type ServiceOffering struct {
	ID          uuid.UUID
	Name        string
	Description string
	PriceCents  int64
	Active      bool
}

// ServiceCatalog is the read-only lookup port for service offerings.
type ServiceCatalog interface {
	// FindByID retrieves a service offering by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceOffering, error)
}
