package repository

import (
	"context"

	"gorm.io/gorm"

	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
)

// txRepos bundles the repositories bound to a single *gorm.DB handle, either
// the root connection or an open transaction.
type txRepos struct {
	bookings        *GormBookingRepository
	transitionLogs  *GormTransitionLogRepository
	providerActions *GormProviderActionRepository
}

func newTxRepos(db *gorm.DB) txRepos {
	return txRepos{
		bookings:        NewGormBookingRepository(db),
		transitionLogs:  NewGormTransitionLogRepository(db),
		providerActions: NewGormProviderActionRepository(db),
	}
}

func (t txRepos) Bookings() bookingDomain.BookingRepository {
	return t.bookings
}

func (t txRepos) TransitionLogs() bookingDomain.TransitionLogRepository {
	return t.transitionLogs
}

func (t txRepos) ProviderActions() bookingDomain.ProviderActionRepository {
	return t.providerActions
}

// GormUnitOfWork implements booking.UnitOfWork over a GORM connection.
// Reads outside WithinTx run in autocommit mode; WithinTx wraps the callback
// in a database transaction and rolls back on error.
type GormUnitOfWork struct {
	txRepos
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{
		txRepos: newTxRepos(db),
		db:      db,
	}
}

// WithinTx runs fn inside a database transaction. The repositories passed to
// fn share the transaction handle; any error returned by fn rolls the whole
// transaction back.
func (u *GormUnitOfWork) WithinTx(ctx context.Context, fn func(repos bookingDomain.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newTxRepos(tx))
	})
}
