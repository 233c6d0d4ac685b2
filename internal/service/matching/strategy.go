package matching

import (
	"bytes"
	"context"
	"sort"

	"service-dispatch/internal/domain"
)

// strategy answers a radius query around a point.
type strategy interface {
	name() string
	nearby(ctx context.Context, f domain.CourierFilter, at domain.Point, radiusKm float64) ([]domain.NearbyCourier, error)
}

// indexedStrategy lets the spatial index do the heavy filtering.
type indexedStrategy struct{ store Store }

func (indexedStrategy) name() string { return "indexed" }

func (s indexedStrategy) nearby(ctx context.Context, f domain.CourierFilter, at domain.Point, radiusKm float64) ([]domain.NearbyCourier, error) {
	profiles, err := s.store.NearbyIndexed(ctx, f, at, radiusKm)
	if err != nil {
		return nil, err
	}
	return rank(profiles, at, radiusKm, f.Limit), nil
}

// haversineStrategy loads every located courier and measures in memory.
type haversineStrategy struct{ store Store }

func (haversineStrategy) name() string { return "haversine" }

func (s haversineStrategy) nearby(ctx context.Context, f domain.CourierFilter, at domain.Point, radiusKm float64) ([]domain.NearbyCourier, error) {
	profiles, err := s.store.ListLocated(ctx, f)
	if err != nil {
		return nil, err
	}
	return rank(profiles, at, radiusKm, f.Limit), nil
}

// rank measures every profile with the haversine formula, keeps those within
// radiusKm and orders them by distance then courier id. Both strategies finish
// here so they agree on distances and ordering.
func rank(profiles []domain.CourierProfile, at domain.Point, radiusKm float64, limit int) []domain.NearbyCourier {
	out := make([]domain.NearbyCourier, 0, len(profiles))
	for _, p := range profiles {
		pos, ok := p.Position()
		if !ok {
			continue
		}
		d := domain.HaversineKm(at, pos)
		if d > radiusKm {
			continue
		}
		nc := toNearby(p)
		nc.DistanceKm = &d
		out = append(out, nc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := *out[i].DistanceKm, *out[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return bytes.Compare(out[i].CourierID[:], out[j].CourierID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func toNearby(p domain.CourierProfile) domain.NearbyCourier {
	return domain.NearbyCourier{
		CourierID:      p.UserID,
		DisplayName:    p.DisplayName,
		VehicleType:    p.VehicleType,
		Status:         p.Status,
		Rating:         p.RatingAvg,
		LastLocationAt: p.LastLocationAt,
	}
}
