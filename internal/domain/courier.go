package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

type (
	// CourierStatus is the operational state of a courier profile.
	CourierStatus string
	// VehicleType is the vehicle a courier delivers with.
	VehicleType string
)

// Courier statuses.
const (
	CourierOffline   CourierStatus = "OFFLINE"
	CourierAvailable CourierStatus = "AVAILABLE"
	CourierBusy      CourierStatus = "BUSY"
	CourierSuspended CourierStatus = "SUSPENDED"
)

// Vehicle types.
const (
	VehicleMoto VehicleType = "MOTO"
	VehicleCar  VehicleType = "CAR"
	VehicleVan  VehicleType = "VAN"
)

// Valid reports whether s is a known courier status.
func (s CourierStatus) Valid() bool {
	switch s {
	case CourierOffline, CourierAvailable, CourierBusy, CourierSuspended:
		return true
	}
	return false
}

// Valid reports whether v is a known vehicle type.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleMoto, VehicleCar, VehicleVan:
		return true
	}
	return false
}

// CourierProfile is a courier's operational state, one per courier user.
type CourierProfile struct {
	UserID         uuid.UUID
	VehicleType    VehicleType
	Phone          string
	DisplayName    string
	Status         CourierStatus
	CurrentLat     *float64
	CurrentLng     *float64
	LastLocationAt *time.Time
	RatingAvg      float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Position returns the last known position, if any.
func (p CourierProfile) Position() (Point, bool) {
	if p.CurrentLat == nil || p.CurrentLng == nil {
		return Point{}, false
	}
	return Point{Lat: *p.CurrentLat, Lng: *p.CurrentLng}, true
}

// CourierProfileUpdate carries optional profile fields.
// A nil field means "do not change" that attribute.
type CourierProfileUpdate struct {
	UserID      uuid.UUID
	VehicleType *VehicleType
	Phone       *string
	DisplayName *string
}

// NearbyCourier is one GeoMatcher result row.
type NearbyCourier struct {
	CourierID      uuid.UUID
	DisplayName    string
	VehicleType    VehicleType
	Status         CourierStatus
	Rating         float64
	LastLocationAt *time.Time
	DistanceKm     *float64
}

var rePhone = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// ValidatePhone validates the phone number format.
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}

// CourierFilter narrows a courier search. Empty Statuses means any status.
type CourierFilter struct {
	VehicleType *VehicleType
	Statuses    []CourierStatus
	Limit       int
}
