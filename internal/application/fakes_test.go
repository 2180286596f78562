package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/catalog"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/internal/domain/promo"
	"github.com/salonflow/platform/pkg/domain"
	"github.com/salonflow/platform/pkg/kafka"
)

// fakeBookingRepo is an in-memory booking.Repository.
type fakeBookingRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*booking.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{items: map[uuid.UUID]*booking.Booking{}}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return b, nil
}

func (r *fakeBookingRepo) FindActiveBySlot(_ context.Context, branchID, stylistID uuid.UUID, startTime time.Time) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.BranchID() == branchID && b.StylistID() == stylistID &&
			b.StartTime().Equal(startTime.UTC()) && b.Status() != booking.StatusCancelled {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("booking for slot", startTime.UTC().Format(time.RFC3339))
}

func (r *fakeBookingRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, page, limit int) ([]*booking.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.items {
		if b.CustomerID() == customerID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListActiveStartTimes(_ context.Context, branchID, stylistID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, b := range r.items {
		st := b.StartTime()
		if b.BranchID() == branchID && b.StylistID() == stylistID &&
			b.Status() != booking.StatusCancelled &&
			!st.Before(from) && st.Before(to) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListConfirmedEndedBefore(_ context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.items {
		if b.Status() == booking.StatusConfirmed && b.EndTime().Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListPendingCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.items {
		if b.Status() == booking.StatusPending && b.CreatedAt().Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID()]; !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	r.items[b.ID()] = b
	return nil
}

// fakePaymentRepo is an in-memory payment.Repository.
type fakePaymentRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*payment.Payment
	saveErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{items: map[uuid.UUID]*payment.Payment{}}
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("payment", id.String())
	}
	return p, nil
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.BookingID() == bookingID {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("payment for booking", bookingID.String())
}

func (r *fakePaymentRepo) ListAll(_ context.Context, page, limit int) ([]*payment.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*payment.Payment, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) GetRevenueStats(_ context.Context) (int64, map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var revenue int64
	counts := map[string]int64{}
	for _, p := range r.items {
		counts[string(p.Status())]++
		if p.Status() == payment.StatusSucceeded {
			revenue += p.AmountCents()
		}
	}
	return revenue, counts, nil
}

func (r *fakePaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID()] = p
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID()]; !ok {
		return domain.NewNotFoundError("payment", p.ID().String())
	}
	r.items[p.ID()] = p
	return nil
}

// fakeCatalogRepo is an in-memory catalog.Repository.
type fakeCatalogRepo struct {
	branches map[uuid.UUID]*catalog.Branch
	stylists map[uuid.UUID]*catalog.Stylist
	services map[uuid.UUID]*catalog.Service
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		branches: map[uuid.UUID]*catalog.Branch{},
		stylists: map[uuid.UUID]*catalog.Stylist{},
		services: map[uuid.UUID]*catalog.Service{},
	}
}

// seed inserts one branch, one active stylist at it, and one service.
func (r *fakeCatalogRepo) seed(priceCents int64) (branchID, stylistID, serviceID uuid.UUID) {
	branchID, stylistID, serviceID = uuid.New(), uuid.New(), uuid.New()
	r.branches[branchID] = &catalog.Branch{ID: branchID, Name: "Downtown"}
	r.stylists[stylistID] = &catalog.Stylist{ID: stylistID, BranchID: branchID, UserID: uuid.New(), Name: "Alex", Active: true}
	r.services[serviceID] = &catalog.Service{ID: serviceID, Name: "Haircut", PriceCents: priceCents}
	return branchID, stylistID, serviceID
}

func (r *fakeCatalogRepo) GetBranch(_ context.Context, id uuid.UUID) (*catalog.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, domain.NewNotFoundError("branch", id.String())
	}
	return b, nil
}

func (r *fakeCatalogRepo) GetStylist(_ context.Context, id uuid.UUID) (*catalog.Stylist, error) {
	s, ok := r.stylists[id]
	if !ok {
		return nil, domain.NewNotFoundError("stylist", id.String())
	}
	return s, nil
}

func (r *fakeCatalogRepo) GetService(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, domain.NewNotFoundError("service", id.String())
	}
	return s, nil
}

func (r *fakeCatalogRepo) ListBranches(_ context.Context) ([]*catalog.Branch, error) {
	out := make([]*catalog.Branch, 0, len(r.branches))
	for _, b := range r.branches {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListStylistsByBranch(_ context.Context, branchID uuid.UUID) ([]*catalog.Stylist, error) {
	var out []*catalog.Stylist
	for _, s := range r.stylists {
		if s.BranchID == branchID && s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListServices(_ context.Context) ([]*catalog.Service, error) {
	out := make([]*catalog.Service, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s)
	}
	return out, nil
}

// fakePromoRepo is an in-memory promo.Repository.
type fakePromoRepo struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*promo.PromoCode
	redemptions []*promo.Redemption
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{byID: map[uuid.UUID]*promo.PromoCode{}}
}

func (r *fakePromoRepo) Save(_ context.Context, p *promo.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID()] = p
	return nil
}

func (r *fakePromoRepo) Update(_ context.Context, p *promo.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID()]; !ok {
		return domain.NewNotFoundError("promo", p.ID().String())
	}
	r.byID[p.ID()] = p
	return nil
}

func (r *fakePromoRepo) FindByCode(_ context.Context, code string) (*promo.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, p := range r.byID {
		if p.Code() == code {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("promo code", code)
}

func (r *fakePromoRepo) FindByID(_ context.Context, id uuid.UUID) (*promo.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("promo", id.String())
	}
	return p, nil
}

func (r *fakePromoRepo) SaveRedemption(_ context.Context, red *promo.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redemptions = append(r.redemptions, red)
	return nil
}

func (r *fakePromoRepo) HasCustomerRedeemed(_ context.Context, promoID, customerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, red := range r.redemptions {
		if red.PromoID == promoID && red.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

// recordingPublisher captures published events instead of touching Kafka.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Event: event})
	return nil
}

// types returns the published event types in order.
func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Event.Type
	}
	return out
}

// fakeCalendar records mirror operations and can be made to fail.
type fakeCalendar struct {
	mu        sync.Mutex
	created   []uuid.UUID
	deleted   []uuid.UUID
	createErr error
	deleteErr error
}

func (c *fakeCalendar) CreateEvent(_ context.Context, b *booking.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, b.ID())
	return nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, b *booking.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, b.ID())
	return nil
}
