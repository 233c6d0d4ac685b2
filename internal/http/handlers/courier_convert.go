package handlers

import (
	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/courier"
)

func (req becomeCourierRequest) toInput() courier.BecomeInput {
	return courier.BecomeInput{
		VehicleType: req.VehicleType,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
	}
}

func (req updateCourierRequest) toModel(userID uuid.UUID) domain.CourierProfileUpdate {
	u := domain.CourierProfileUpdate{
		UserID:      userID,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
	}
	if req.VehicleType != nil {
		v := domain.VehicleType(*req.VehicleType)
		u.VehicleType = &v
	}
	return u
}

func profileToResponse(p domain.CourierProfile) courierProfileDTO {
	return courierProfileDTO{
		UserID:         p.UserID,
		VehicleType:    string(p.VehicleType),
		Phone:          p.Phone,
		DisplayName:    p.DisplayName,
		Status:         string(p.Status),
		CurrentLat:     p.CurrentLat,
		CurrentLng:     p.CurrentLng,
		LastLocationAt: p.LastLocationAt,
		Rating:         p.RatingAvg,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func nearbyToResponse(list []domain.NearbyCourier) []nearbyCourierDTO {
	out := make([]nearbyCourierDTO, 0, len(list))
	for _, c := range list {
		out = append(out, nearbyCourierDTO{
			CourierID:      c.CourierID,
			DisplayName:    c.DisplayName,
			VehicleType:    string(c.VehicleType),
			Status:         string(c.Status),
			Rating:         c.Rating,
			LastLocationAt: c.LastLocationAt,
			DistanceKm:     c.DistanceKm,
		})
	}
	return out
}
