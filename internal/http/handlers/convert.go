package handlers

import "service-dispatch/internal/domain"

func trackingToResponse(t domain.Tracking) trackingDTO {
	out := trackingDTO{
		Delivery: deliveryToResponse(t.Delivery),
		ThreadID: t.ThreadID,
	}
	if c := t.Courier; c != nil {
		out.Courier = &trackingCourierDTO{
			ID:             c.UserID,
			DisplayName:    c.DisplayName,
			VehicleType:    string(c.VehicleType),
			Rating:         c.RatingAvg,
			Phone:          c.Phone,
			CurrentLat:     c.CurrentLat,
			CurrentLng:     c.CurrentLng,
			LastLocationAt: c.LastLocationAt,
		}
	}
	return out
}

func locationsToResponse(list []domain.DeliveryLocation) []locationDTO {
	out := make([]locationDTO, 0, len(list))
	for _, l := range list {
		out = append(out, locationDTO{
			Lat:        l.Lat,
			Lng:        l.Lng,
			Speed:      l.Speed,
			Heading:    l.Heading,
			Accuracy:   l.Accuracy,
			RecordedAt: l.RecordedAt,
		})
	}
	return out
}
