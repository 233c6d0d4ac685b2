// Package delivery implements the dispatch state machine: delivery creation,
// offers to couriers, the accept race and the pickup/complete/cancel lifecycle.
package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Options tunes the state machine.
type Options struct {
	RequestTTL       time.Duration
	OperationTimeout time.Duration
}

// Service is the dispatch state machine.
type Service struct {
	repo        Repository
	catalog     Catalog
	threads     ThreadOpener
	notifier    Notifier
	broadcaster Broadcaster
	metrics     Metrics

	requestTTL       time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a Service. A nil notifier, broadcaster or metrics discards output.
func NewService(
	repo Repository,
	catalog Catalog,
	threads ThreadOpener,
	notifier Notifier,
	broadcaster Broadcaster,
	metrics Metrics,
	opts Options,
	logger logx.Logger,
) *Service {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 3 * time.Second
	}
	if opts.RequestTTL <= 0 {
		opts.RequestTTL = 15 * time.Minute
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:             repo,
		catalog:          catalog,
		threads:          threads,
		notifier:         notifier,
		broadcaster:      broadcaster,
		metrics:          metrics,
		requestTTL:       opts.RequestTTL,
		operationTimeout: opts.OperationTimeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// notify sends n and logs a failure. Notifications never fail the caller.
func (s *Service) notify(ctx context.Context, n domain.Notification) {
	n.Type = domain.NotificationSystem
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notify failed",
			logx.String("user_id", n.UserID.String()),
			logx.String("title", n.Title),
			logx.Err(err),
		)
	}
}

// openThread ensures a direct channel exists and logs a failure.
func (s *Service) openThread(ctx context.Context, a, b, storeID uuid.UUID) {
	if _, err := s.threads.OpenDirect(ctx, a, b, storeID); err != nil {
		s.logger.Warn("open direct thread failed",
			logx.String("party_a", a.String()),
			logx.String("party_b", b.String()),
			logx.String("store_id", storeID.String()),
			logx.Err(err),
		)
	}
}

func (s *Service) emitStatus(deliveryID uuid.UUID, status domain.DeliveryStatus, at time.Time) {
	s.broadcaster.EmitToDelivery(deliveryID, domain.EventDeliveryStatus, domain.StatusEvent{
		DeliveryID: deliveryID,
		Status:     status,
		At:         at,
	})
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) error { return nil }

type nopBroadcaster struct{}

func (nopBroadcaster) EmitToUser(uuid.UUID, string, any)     {}
func (nopBroadcaster) EmitToDelivery(uuid.UUID, string, any) {}

type nopMetrics struct{}

func (nopMetrics) ObserveTransition(domain.DeliveryStatus) {}
func (nopMetrics) ObserveAcceptConflict(string)            {}

// afterCommit returns a context for best-effort side effects that outlives the
// caller's cancellation but not the operation timeout.
func (s *Service) afterCommit(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.operationTimeout)
}
