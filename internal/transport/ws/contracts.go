package ws

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/tracking"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(raw string) (uuid.UUID, error)
}

// Accounts loads the caller's account. Absent accounts are nil.
type Accounts interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// Stream is the location stream core.
type Stream interface {
	Join(ctx context.Context, userID, deliveryID uuid.UUID) bool
	Report(ctx context.Context, courierID uuid.UUID, r domain.LocationReport) tracking.Outcome
}

// Metrics observes connections and dropped frames.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	FrameDropped(event string)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()   {}
func (nopMetrics) ConnectionClosed()   {}
func (nopMetrics) FrameDropped(string) {}
