//go:generate mockgen -source=contracts.go -destination=courier_mocks_test.go -package=courier

package courier

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// Repository defines the profile storage operations used by the service.
type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error)
	UpsertProfile(ctx context.Context, p *domain.CourierProfile) error
	UpdateProfile(ctx context.Context, u domain.CourierProfileUpdate) (bool, error)
	SetStatusFrom(ctx context.Context, userID uuid.UUID, to domain.CourierStatus, from []domain.CourierStatus) (bool, error)
}
