package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfix/service-booking/internal/domain"
	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
	"github.com/urbanfix/service-booking/internal/events"
)

// cloneBooking deep-copies a booking so stored state is isolated from the
// aggregates handed to the service under test.
func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	var providerID *uuid.UUID
	if p := bk.ProviderID(); p != nil {
		v := *p
		providerID = &v
	}
	return bookingDomain.Reconstruct(
		bk.ID(),
		bk.CustomerID(),
		providerID,
		bk.ServiceID(),
		bk.ScheduledDate(),
		bk.Status(),
		bk.PriceCents(),
		bk.Reason(),
		bk.CreatedAt(),
		bk.UpdatedAt(),
	)
}

// fakeBookingRepo is an in-memory BookingRepository with the same
// compare-and-swap update semantics as the GORM implementation.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking

	createErr error
	updateErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *fakeBookingRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*bookingDomain.Booking
	for _, id := range ids {
		if bk, ok := r.bookings[id]; ok {
			result = append(result, cloneBooking(bk))
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) ExistsPendingDuplicate(_ context.Context, customerID, serviceID uuid.UUID, scheduledDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.CustomerID() == customerID &&
			bk.ServiceID() == serviceID &&
			bk.ScheduledDate().Equal(scheduledDate) &&
			bk.Status() == bookingDomain.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) List(_ context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	excluded := make(map[uuid.UUID]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	var matched []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if excluded[bk.ID()] {
			continue
		}
		if filter.Status != nil && bk.Status() != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && bk.CustomerID() != *filter.CustomerID {
			continue
		}
		if filter.ProviderID != nil && !bk.IsAssignedTo(*filter.ProviderID) {
			continue
		}
		if filter.ServiceID != nil && bk.ServiceID() != *filter.ServiceID {
			continue
		}
		matched = append(matched, cloneBooking(bk))
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeBookingRepo) Create(_ context.Context, bk *bookingDomain.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking, expectedStatus bookingDomain.BookingStatus) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok || stored.Status() != expectedStatus {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id.String())
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) Stats(_ context.Context, from, to *time.Time) (*bookingDomain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &bookingDomain.Stats{}
	for _, bk := range r.bookings {
		if from != nil && to != nil {
			d := bk.ScheduledDate()
			if d.Before(*from) || d.After(*to) {
				continue
			}
		}
		stats.Total++
		switch bk.Status() {
		case bookingDomain.StatusPending:
			stats.Pending++
		case bookingDomain.StatusAssigned:
			stats.Assigned++
		case bookingDomain.StatusInProgress:
			stats.InProgress++
		case bookingDomain.StatusCompleted:
			stats.Completed++
			stats.RevenueCents += bk.PriceCents()
		case bookingDomain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// seed stores a booking directly, bypassing the service under test.
func (r *fakeBookingRepo) seed(bk *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = cloneBooking(bk)
}

// get returns the stored state of a booking.
func (r *fakeBookingRepo) get(id uuid.UUID) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil
	}
	return cloneBooking(bk)
}

// fakeLogRepo is an in-memory TransitionLogRepository.
type fakeLogRepo struct {
	mu      sync.Mutex
	records []bookingDomain.TransitionRecord

	appendErr error
}

func (r *fakeLogRepo) Append(_ context.Context, record bookingDomain.TransitionRecord) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeLogRepo) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]bookingDomain.TransitionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []bookingDomain.TransitionRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].BookingID == bookingID {
			result = append(result, r.records[i])
		}
	}
	return result, nil
}

func (r *fakeLogRepo) DeleteByBooking(_ context.Context, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.BookingID != bookingID {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeLogRepo) forBooking(bookingID uuid.UUID) []bookingDomain.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []bookingDomain.TransitionRecord
	for _, rec := range r.records {
		if rec.BookingID == bookingID {
			result = append(result, rec)
		}
	}
	return result
}

// fakeActionRepo is an in-memory ProviderActionRepository.
type fakeActionRepo struct {
	mu      sync.Mutex
	actions []bookingDomain.ProviderAction

	appendErr error
}

func (r *fakeActionRepo) Append(_ context.Context, action bookingDomain.ProviderAction) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return nil
}

func (r *fakeActionRepo) RejectedBookingIDs(_ context.Context, providerID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range r.actions {
		if a.ProviderID == providerID && a.Action == bookingDomain.ProviderActionRejected {
			ids = append(ids, a.BookingID)
		}
	}
	return ids, nil
}

func (r *fakeActionRepo) DeleteByBooking(_ context.Context, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.actions[:0]
	for _, a := range r.actions {
		if a.BookingID != bookingID {
			kept = append(kept, a)
		}
	}
	r.actions = kept
	return nil
}

func (r *fakeActionRepo) forBooking(bookingID uuid.UUID) []bookingDomain.ProviderAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []bookingDomain.ProviderAction
	for _, a := range r.actions {
		if a.BookingID == bookingID {
			result = append(result, a)
		}
	}
	return result
}

// fakeUoW implements booking.UnitOfWork over the in-memory fakes. WithinTx
// snapshots all stores before running fn and restores them when fn fails,
// mirroring a database rollback.
type fakeUoW struct {
	txMu     sync.Mutex
	bookings *fakeBookingRepo
	logs     *fakeLogRepo
	actions  *fakeActionRepo
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		bookings: newFakeBookingRepo(),
		logs:     &fakeLogRepo{},
		actions:  &fakeActionRepo{},
	}
}

func (u *fakeUoW) Bookings() bookingDomain.BookingRepository { return u.bookings }

func (u *fakeUoW) TransitionLogs() bookingDomain.TransitionLogRepository { return u.logs }

func (u *fakeUoW) ProviderActions() bookingDomain.ProviderActionRepository { return u.actions }

func (u *fakeUoW) WithinTx(_ context.Context, fn func(repos bookingDomain.TxRepos) error) error {
	u.txMu.Lock()
	defer u.txMu.Unlock()

	bookingsSnap := u.snapshotBookings()
	logsSnap := u.snapshotLogs()
	actionsSnap := u.snapshotActions()

	if err := fn(u); err != nil {
		u.restore(bookingsSnap, logsSnap, actionsSnap)
		return err
	}
	return nil
}

func (u *fakeUoW) snapshotBookings() map[uuid.UUID]*bookingDomain.Booking {
	u.bookings.mu.Lock()
	defer u.bookings.mu.Unlock()
	snap := make(map[uuid.UUID]*bookingDomain.Booking, len(u.bookings.bookings))
	for id, bk := range u.bookings.bookings {
		snap[id] = cloneBooking(bk)
	}
	return snap
}

func (u *fakeUoW) snapshotLogs() []bookingDomain.TransitionRecord {
	u.logs.mu.Lock()
	defer u.logs.mu.Unlock()
	return append([]bookingDomain.TransitionRecord(nil), u.logs.records...)
}

func (u *fakeUoW) snapshotActions() []bookingDomain.ProviderAction {
	u.actions.mu.Lock()
	defer u.actions.mu.Unlock()
	return append([]bookingDomain.ProviderAction(nil), u.actions.actions...)
}

func (u *fakeUoW) restore(
	bookings map[uuid.UUID]*bookingDomain.Booking,
	logs []bookingDomain.TransitionRecord,
	actions []bookingDomain.ProviderAction,
) {
	u.bookings.mu.Lock()
	u.bookings.bookings = bookings
	u.bookings.mu.Unlock()

	u.logs.mu.Lock()
	u.logs.records = logs
	u.logs.mu.Unlock()

	u.actions.mu.Lock()
	u.actions.actions = actions
	u.actions.mu.Unlock()
}

// fakeCatalog is an in-memory ServiceCatalog.
type fakeCatalog struct {
	offerings map[uuid.UUID]*bookingDomain.ServiceOffering
}

func newFakeCatalog(offerings ...*bookingDomain.ServiceOffering) *fakeCatalog {
	c := &fakeCatalog{offerings: make(map[uuid.UUID]*bookingDomain.ServiceOffering)}
	for _, o := range offerings {
		c.offerings[o.ID] = o
	}
	return c
}

func (c *fakeCatalog) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.ServiceOffering, error) {
	o, ok := c.offerings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Service", id.String())
	}
	return o, nil
}

// capturePublisher records published events instead of writing to Kafka.
type capturePublisher struct {
	mu        sync.Mutex
	published []events.CloudEvent

	err error
}

func (p *capturePublisher) PublishEvent(_ context.Context, _, _ string, event events.CloudEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]string, len(p.published))
	for i, e := range p.published {
		result[i] = e.Type
	}
	return result
}

// testStack bundles a service wired to fresh fakes.
type testStack struct {
	uow       *fakeUoW
	catalog   *fakeCatalog
	publisher *capturePublisher
	service   *BookingService
	admin     *AdminService
}

func newTestStack(offerings ...*bookingDomain.ServiceOffering) *testStack {
	uow := newFakeUoW()
	catalog := newFakeCatalog(offerings...)
	publisher := &capturePublisher{}
	logger := zap.NewNop()

	return &testStack{
		uow:       uow,
		catalog:   catalog,
		publisher: publisher,
		service:   NewBookingService(uow, catalog, publisher, logger),
		admin:     NewAdminService(uow, publisher, logger),
	}
}
