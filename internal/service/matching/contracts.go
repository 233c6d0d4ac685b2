//go:generate mockgen -source=contracts.go -destination=matching_mocks_test.go -package=matching

package matching

import (
	"context"

	"service-dispatch/internal/domain"
)

// Store is the courier storage the matcher reads from.
type Store interface {
	ListRecent(ctx context.Context, f domain.CourierFilter) ([]domain.CourierProfile, error)
	ListLocated(ctx context.Context, f domain.CourierFilter) ([]domain.CourierProfile, error)
	NearbyIndexed(ctx context.Context, f domain.CourierFilter, at domain.Point, radiusKm float64) ([]domain.CourierProfile, error)
	HasPostGIS(ctx context.Context) (bool, error)
}
