package handlers

import (
	"time"

	"github.com/google/uuid"
)

type courierProfileDTO struct {
	UserID         uuid.UUID  `json:"userId"`
	VehicleType    string     `json:"vehicleType"`
	Phone          string     `json:"phone"`
	DisplayName    string     `json:"displayName"`
	Status         string     `json:"status"`
	CurrentLat     *float64   `json:"currentLat"`
	CurrentLng     *float64   `json:"currentLng"`
	LastLocationAt *time.Time `json:"lastLocationAt"`
	Rating         float64    `json:"rating"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type becomeCourierRequest struct {
	VehicleType string `json:"vehicleType"`
	Phone       string `json:"phone"`
	DisplayName string `json:"displayName"`
}

type updateCourierRequest struct {
	VehicleType *string `json:"vehicleType,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

type setCourierStatusRequest struct {
	Status string `json:"status"`
}

type nearbyCourierDTO struct {
	CourierID      uuid.UUID  `json:"courierId"`
	DisplayName    string     `json:"displayName"`
	VehicleType    string     `json:"vehicleType"`
	Status         string     `json:"status"`
	Rating         float64    `json:"rating"`
	LastLocationAt *time.Time `json:"lastLocationAt"`
	DistanceKm     *float64   `json:"distanceKm"`
}
