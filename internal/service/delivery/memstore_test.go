package delivery

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/deliverytx"
)

var errInjected = errors.New("injected failure")

type memOrder struct {
	order          domain.Order
	status         domain.OrderStatus
	deliveryStatus domain.DeliveryStatus
}

// memStore is an in-memory dispatch store. Transactions hold the store lock
// for their whole duration and restore a snapshot on error, which gives the
// same all-or-nothing behaviour as the SQL implementation.
type memStore struct {
	mu sync.Mutex
	memData
	failOn string
}

// memData is the part of memStore a transaction snapshots.
type memData struct {
	stores     map[uuid.UUID]uuid.UUID
	orders     map[uuid.UUID]*memOrder
	profiles   map[uuid.UUID]domain.CourierProfile
	deliveries map[uuid.UUID]domain.Delivery
	requests   map[uuid.UUID]domain.DeliveryRequest
	threads    map[[3]uuid.UUID]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{memData: memData{
		stores:     map[uuid.UUID]uuid.UUID{},
		orders:     map[uuid.UUID]*memOrder{},
		profiles:   map[uuid.UUID]domain.CourierProfile{},
		deliveries: map[uuid.UUID]domain.Delivery{},
		requests:   map[uuid.UUID]domain.DeliveryRequest{},
		threads:    map[[3]uuid.UUID]uuid.UUID{},
	}}
}

// snapshot deep-copies everything but threads, which transactions never write.
func (s *memStore) snapshot() memData {
	cp := memData{
		stores:     map[uuid.UUID]uuid.UUID{},
		orders:     map[uuid.UUID]*memOrder{},
		profiles:   map[uuid.UUID]domain.CourierProfile{},
		deliveries: map[uuid.UUID]domain.Delivery{},
		requests:   map[uuid.UUID]domain.DeliveryRequest{},
		threads:    s.threads,
	}
	for k, v := range s.stores {
		cp.stores[k] = v
	}
	for k, v := range s.orders {
		o := *v
		cp.orders[k] = &o
	}
	for k, v := range s.profiles {
		cp.profiles[k] = v
	}
	for k, v := range s.deliveries {
		cp.deliveries[k] = v
	}
	for k, v := range s.requests {
		cp.requests[k] = v
	}
	return cp
}

func (s *memStore) restore(cp memData) {
	s.memData = cp
}

// seeding helpers

func (s *memStore) addStore(owner uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.stores[id] = owner
	return id
}

func (s *memStore) addOrder(buyer uuid.UUID, storeIDs ...uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.orders[id] = &memOrder{order: domain.Order{ID: id, BuyerID: buyer, StoreIDs: storeIDs}}
	return id
}

func (s *memStore) addCourier(status domain.CourierStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.profiles[id] = domain.CourierProfile{UserID: id, DisplayName: "courier", VehicleType: domain.VehicleMoto, Status: status}
	return id
}

func (s *memStore) delivery(id uuid.UUID) domain.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveries[id]
}

func (s *memStore) request(id uuid.UUID) domain.DeliveryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *memStore) profile(id uuid.UUID) domain.CourierProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id]
}

func (s *memStore) order(id uuid.UUID) memOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *memStore) withOwner(d domain.Delivery) *domain.Delivery {
	d.StoreOwnerID = s.stores[d.StoreID]
	return &d
}

// Repository

func (s *memStore) WithTx(_ context.Context, fn func(tx deliverytx.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.snapshot()
	if err := fn(memTx{s}); err != nil {
		s.restore(cp)
		return err
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, nil
	}
	return s.withOwner(d), nil
}

func (s *memStore) GetByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deliveries {
		if d.OrderID == orderID {
			return s.withOwner(d), nil
		}
	}
	return nil, nil
}

func (s *memStore) GetRequest(_ context.Context, id uuid.UUID) (*domain.DeliveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memStore) ListRequestsByCourier(_ context.Context, courierID uuid.UUID, status *domain.RequestStatus) ([]domain.DeliveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DeliveryRequest, 0)
	for _, r := range s.requests {
		if r.CourierID == courierID && (status == nil || r.Status == *status) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) DeclineRequest(_ context.Context, id, courierID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.CourierID != courierID || r.Status != domain.RequestPending {
		return false, nil
	}
	r.Status, r.RespondedAt = domain.RequestDeclined, &at
	s.requests[id] = r
	return true, nil
}

func (s *memStore) ExpireRequest(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != domain.RequestPending || at.Before(r.ExpiresAt) {
		return false, nil
	}
	r.Status, r.RespondedAt = domain.RequestExpired, &at
	s.requests[id] = r
	return true, nil
}

func (s *memStore) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.requests {
		if r.Status == domain.RequestPending && !now.Before(r.ExpiresAt) {
			r.Status, r.RespondedAt = domain.RequestExpired, &now
			s.requests[id] = r
			n++
		}
	}
	return n, nil
}

// Catalog

func (s *memStore) StoreOwner(_ context.Context, storeID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.stores[storeID]
	return owner, ok, nil
}

func (s *memStore) GetOrder(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := o.order
	return &cp, nil
}

func (s *memStore) GetProfile(_ context.Context, userID uuid.UUID) (*domain.CourierProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ThreadOpener

func (s *memStore) OpenDirect(_ context.Context, a, b, storeID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [3]uuid.UUID{a, b, storeID}
	if id, ok := s.threads[key]; ok {
		return id, nil
	}
	id := uuid.New()
	s.threads[key] = id
	return id, nil
}

func (s *memStore) FindDirect(_ context.Context, a, b, storeID uuid.UUID) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.threads[[3]uuid.UUID{a, b, storeID}]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

// memTx runs with memStore.mu held.
type memTx struct{ s *memStore }

func (t memTx) fail(op string) error {
	if t.s.failOn == op {
		return errInjected
	}
	return nil
}

func (t memTx) LockDelivery(_ context.Context, id uuid.UUID) (*domain.Delivery, error) {
	d, ok := t.s.deliveries[id]
	if !ok {
		return nil, nil
	}
	return t.s.withOwner(d), nil
}

func (t memTx) InsertDelivery(_ context.Context, d *domain.Delivery) error {
	if err := t.fail("InsertDelivery"); err != nil {
		return err
	}
	for _, existing := range t.s.deliveries {
		if existing.OrderID == d.OrderID {
			return apperr.Conflict("DELIVERY_EXISTS", "order already has a delivery")
		}
	}
	cp := *d
	cp.StoreOwnerID = uuid.Nil
	t.s.deliveries[d.ID] = cp
	return nil
}

func (t memTx) AssignCourier(_ context.Context, deliveryID, courierID uuid.UUID, at time.Time) (bool, error) {
	d, ok := t.s.deliveries[deliveryID]
	if !ok || d.CourierID != nil || d.Status != domain.DeliveryUnassigned {
		return false, nil
	}
	d.CourierID, d.Status, d.AssignedAt = &courierID, domain.DeliveryAssigned, &at
	t.s.deliveries[deliveryID] = d
	return true, nil
}

func (t memTx) TransitionDelivery(_ context.Context, deliveryID uuid.UUID, to domain.DeliveryStatus, at time.Time) (bool, error) {
	d, ok := t.s.deliveries[deliveryID]
	if !ok || !domain.CanTransition(d.Status, to) {
		return false, nil
	}
	d.Status = to
	switch to {
	case domain.DeliveryPickedUp:
		d.PickedUpAt = &at
	case domain.DeliveryDelivered:
		d.DeliveredAt = &at
	}
	t.s.deliveries[deliveryID] = d
	return true, nil
}

func (t memTx) GetCourierProfile(_ context.Context, userID uuid.UUID) (*domain.CourierProfile, error) {
	p, ok := t.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t memTx) SetCourierStatus(_ context.Context, userID uuid.UUID, status domain.CourierStatus) error {
	if err := t.fail("SetCourierStatus"); err != nil {
		return err
	}
	p, ok := t.s.profiles[userID]
	if !ok {
		return errors.New("courier profile not found")
	}
	p.Status = status
	t.s.profiles[userID] = p
	return nil
}

func (t memTx) SetCourierStatusFrom(_ context.Context, userID uuid.UUID, to domain.CourierStatus, from []domain.CourierStatus) (bool, error) {
	if err := t.fail("SetCourierStatusFrom"); err != nil {
		return false, err
	}
	p, ok := t.s.profiles[userID]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
	t.s.profiles[userID] = p
	return true, nil
}

func (t memTx) HasPendingRequest(_ context.Context, deliveryID, courierID uuid.UUID) (bool, error) {
	for _, r := range t.s.requests {
		if r.DeliveryID == deliveryID && r.CourierID == courierID && r.Status == domain.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) InsertRequest(_ context.Context, r *domain.DeliveryRequest) error {
	t.s.requests[r.ID] = *r
	return nil
}

func (t memTx) AcceptRequest(_ context.Context, requestID, courierID uuid.UUID, at time.Time) (bool, error) {
	r, ok := t.s.requests[requestID]
	if !ok || r.CourierID != courierID || r.Status != domain.RequestPending || !at.Before(r.ExpiresAt) {
		return false, nil
	}
	for _, other := range t.s.requests {
		if other.DeliveryID == r.DeliveryID && other.Status == domain.RequestAccepted {
			return false, apperr.Conflict("DELIVERY_TAKEN", "offer no longer available")
		}
	}
	r.Status, r.RespondedAt = domain.RequestAccepted, &at
	t.s.requests[requestID] = r
	return true, nil
}

func (t memTx) CancelPendingRequests(_ context.Context, deliveryID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	for id, r := range t.s.requests {
		if r.DeliveryID == deliveryID && r.Status == domain.RequestPending {
			r.Status, r.RespondedAt = domain.RequestCancelled, &at
			t.s.requests[id] = r
			n++
		}
	}
	return n, nil
}

func (t memTx) SetOrderDeliveryStatus(_ context.Context, orderID uuid.UUID, status domain.DeliveryStatus) error {
	if err := t.fail("SetOrderDeliveryStatus"); err != nil {
		return err
	}
	o, ok := t.s.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	o.deliveryStatus = status
	return nil
}

func (t memTx) SetOrderStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	o.status = status
	return nil
}

// recBroadcaster records emitted events.
type recBroadcaster struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	room    string
	target  uuid.UUID
	event   string
	payload any
}

func (b *recBroadcaster) EmitToUser(userID uuid.UUID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{room: "user", target: userID, event: event, payload: payload})
}

func (b *recBroadcaster) EmitToDelivery(deliveryID uuid.UUID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{room: "delivery", target: deliveryID, event: event, payload: payload})
}

func (b *recBroadcaster) named(event string) []emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emitted
	for _, e := range b.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}
