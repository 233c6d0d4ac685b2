// Package tracking ingests courier position reports, throttles and samples
// them and rebroadcasts accepted ones to the delivery's subscribers.
package tracking

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ratelimit"
)

// Outcome of one position report.
type Outcome string

// Report outcomes. Everything but Accepted is a silent drop.
const (
	Accepted  Outcome = "accepted"
	Invalid   Outcome = "invalid"
	NotFound  Outcome = "not_found"
	Forbidden Outcome = "forbidden"
	Inactive  Outcome = "inactive"
	Throttled Outcome = "throttled"
	Failed    Outcome = "error"
)

// Deps are the collaborators of a Service. Metrics may be nil.
type Deps struct {
	Deliveries  Deliveries
	Positions   Positions
	History     History
	Broadcaster Broadcaster
	Metrics     Metrics

	// LiveGate is keyed by courier id, HistoryGate by delivery id.
	LiveGate    ratelimit.Gate
	HistoryGate ratelimit.Gate
}

// Service is the location stream core.
type Service struct {
	deps             Deps
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a Service.
func NewService(deps Deps, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	return &Service{
		deps:             deps,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Report handles one position report from courierID.
//
// The report is dropped unless courierID is the assigned courier of an active
// delivery and the courier's live interval has elapsed. An accepted report
// refreshes the courier's position, is written to history at most once per
// history interval per delivery, and is always rebroadcast.
func (s *Service) Report(ctx context.Context, courierID uuid.UUID, r domain.LocationReport) Outcome {
	out := s.report(ctx, courierID, r)
	s.deps.Metrics.ObserveLocationReport(string(out))
	if out != Accepted {
		s.logger.Debug("location report dropped",
			logx.String("reason", string(out)),
			logx.String("courier_id", courierID.String()),
			logx.String("delivery_id", r.DeliveryID.String()),
		)
	}
	return out
}

func (s *Service) report(ctx context.Context, courierID uuid.UUID, r domain.LocationReport) Outcome {
	p := domain.Point{Lat: r.Lat, Lng: r.Lng}
	if r.DeliveryID == uuid.Nil || !p.Valid() || math.IsNaN(r.Lat) || math.IsNaN(r.Lng) {
		return Invalid
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	d, err := s.deps.Deliveries.Get(ctx, r.DeliveryID)
	if err != nil {
		s.logger.Warn("location report lookup failed", logx.String("delivery_id", r.DeliveryID.String()), logx.Err(err))
		return Failed
	}
	if d == nil {
		return NotFound
	}
	if !d.IsCourier(courierID) {
		return Forbidden
	}
	if !d.Status.Active() {
		return Inactive
	}

	if !s.admit(ctx, s.deps.LiveGate, courierID.String()) {
		return Throttled
	}

	now := s.now()
	if err := s.deps.Positions.UpdateLocation(ctx, courierID, p, now); err != nil {
		s.logger.Warn("courier position update failed", logx.String("courier_id", courierID.String()), logx.Err(err))
	}

	if s.admit(ctx, s.deps.HistoryGate, d.ID.String()) {
		loc := &domain.DeliveryLocation{
			ID:         uuid.New(),
			DeliveryID: d.ID,
			CourierID:  courierID,
			Lat:        r.Lat,
			Lng:        r.Lng,
			Speed:      r.Speed,
			Heading:    r.Heading,
			Accuracy:   r.Accuracy,
			RecordedAt: now,
		}
		if err := s.deps.History.Insert(ctx, loc); err != nil {
			s.logger.Warn("delivery location insert failed", logx.String("delivery_id", d.ID.String()), logx.Err(err))
		}
	}

	ts := now
	if r.TS != nil && !r.TS.IsZero() {
		ts = *r.TS
	}
	s.deps.Broadcaster.EmitToDelivery(d.ID, domain.EventCourierLocation, domain.LocationEvent{
		DeliveryID: d.ID,
		CourierID:  courierID,
		Lat:        r.Lat,
		Lng:        r.Lng,
		Speed:      r.Speed,
		Heading:    r.Heading,
		Accuracy:   r.Accuracy,
		TS:         ts,
	})
	return Accepted
}

// admit consults gate and lets the event through when the gate is unreachable.
func (s *Service) admit(ctx context.Context, gate ratelimit.Gate, key string) bool {
	ok, err := gate.Admit(ctx, key)
	if err != nil {
		s.logger.Warn("throttle gate unavailable", logx.String("key", key), logx.Err(err))
		return true
	}
	return ok
}

// Join reports whether userID may subscribe to the delivery's live channel.
func (s *Service) Join(ctx context.Context, userID, deliveryID uuid.UUID) bool {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	d, err := s.deps.Deliveries.Get(ctx, deliveryID)
	if err != nil {
		s.logger.Warn("join lookup failed", logx.String("delivery_id", deliveryID.String()), logx.Err(err))
		return false
	}
	return d != nil && d.IsParticipant(userID)
}

// History returns the sampled trajectory of a delivery to one of its participants.
func (s *Service) History(ctx context.Context, deliveryID, userID uuid.UUID) ([]domain.DeliveryLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	d, err := s.deps.Deliveries.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("DELIVERY_NOT_FOUND", "delivery does not exist")
	}
	if !d.IsParticipant(userID) {
		return nil, apperr.Forbidden("DELIVERY_FORBIDDEN", "not a participant of this delivery")
	}
	return s.deps.History.ListByDelivery(ctx, deliveryID)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLocationReport(string) {}
