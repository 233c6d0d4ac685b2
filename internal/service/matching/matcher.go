// Package matching finds couriers near a point.
package matching

import (
	"context"
	"math"
	"sync"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

const (
	defaultRadiusKm = 10.0
	maxRadiusKm     = 500.0
	defaultLimit    = 30
	maxLimit        = 100

	// StatusAll disables the status filter.
	StatusAll = "ALL"
)

// Query describes a nearby search. A nil At disables distance filtering.
type Query struct {
	At          *domain.Point
	RadiusKm    float64
	VehicleType *domain.VehicleType
	Status      string
	Limit       int
}

// Matcher answers nearby-courier queries, choosing the spatial backend once.
type Matcher struct {
	store            Store
	logger           logx.Logger
	operationTimeout time.Duration

	mu       sync.Mutex
	strategy strategy
}

// NewMatcher creates a Matcher. The backend capability is probed on first use.
func NewMatcher(store Store, timeout time.Duration, logger logx.Logger) *Matcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Matcher{store: store, operationTimeout: timeout, logger: logger}
}

// Nearby returns couriers matching q. With a point, results are within
// RadiusKm and sorted by distance ascending; without one, by most recent
// location then rating.
func (m *Matcher) Nearby(ctx context.Context, q Query) ([]domain.NearbyCourier, error) {
	f, radius, err := normalize(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.operationTimeout)
	defer cancel()

	if q.At == nil {
		profiles, err := m.store.ListRecent(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]domain.NearbyCourier, len(profiles))
		for i, p := range profiles {
			out[i] = toNearby(p)
		}
		return out, nil
	}

	return m.pick(ctx).nearby(ctx, f, *q.At, radius)
}

// pick resolves the strategy on first call. A failed probe falls back to
// haversine for that call and is retried next time.
func (m *Matcher) pick(ctx context.Context) strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strategy != nil {
		return m.strategy
	}

	ok, err := m.store.HasPostGIS(ctx)
	if err != nil {
		m.logger.Warn("spatial capability probe failed", logx.Err(err))
		return haversineStrategy{store: m.store}
	}
	if ok {
		m.strategy = indexedStrategy{store: m.store}
	} else {
		m.strategy = haversineStrategy{store: m.store}
	}
	m.logger.Info("geo matcher backend selected", logx.String("strategy", m.strategy.name()))
	return m.strategy
}

func normalize(q Query) (domain.CourierFilter, float64, error) {
	var f domain.CourierFilter

	if q.At != nil && !q.At.Valid() {
		return f, 0, apperr.Invalid("INVALID_COORDINATES", "lat must be within [-90,90] and lng within [-180,180]")
	}

	radius := q.RadiusKm
	switch {
	case math.IsNaN(radius) || radius < 0:
		return f, 0, apperr.Invalid("INVALID_RADIUS", "radiusKm must be positive")
	case radius == 0:
		radius = defaultRadiusKm
	case radius > maxRadiusKm:
		radius = maxRadiusKm
	}

	f.Limit = q.Limit
	switch {
	case f.Limit < 0:
		return f, 0, apperr.Invalid("INVALID_LIMIT", "limit must be positive")
	case f.Limit == 0:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}

	if q.VehicleType != nil {
		if !q.VehicleType.Valid() {
			return f, 0, apperr.Invalid("INVALID_VEHICLE_TYPE", "vehicleType must be MOTO, CAR or VAN")
		}
		f.VehicleType = q.VehicleType
	}

	switch q.Status {
	case "":
		f.Statuses = []domain.CourierStatus{domain.CourierAvailable, domain.CourierBusy}
	case StatusAll:
	default:
		s := domain.CourierStatus(q.Status)
		if !s.Valid() {
			return f, 0, apperr.Invalid("INVALID_STATUS", "unknown courier status")
		}
		f.Statuses = []domain.CourierStatus{s}
	}
	return f, radius, nil
}
