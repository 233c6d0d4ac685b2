package delivery

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

const (
	maxNotesLen      = 500
	maxMessageLen    = 200
	maxAddressLen    = 300
	minExpiryMinutes = 5
	maxExpiryMinutes = 24 * 60
)

// CreateDeliveryInput carries the fields of a new delivery.
type CreateDeliveryInput struct {
	StoreID  uuid.UUID
	OrderID  uuid.UUID
	SellerID uuid.UUID
	Pickup   domain.Address
	Dropoff  domain.Address
	Notes    string
}

// CreateRequestInput carries an offer to one courier. Zero ExpiresInMinutes uses the default TTL.
type CreateRequestInput struct {
	DeliveryID       uuid.UUID
	SellerID         uuid.UUID
	CourierID        uuid.UUID
	Message          string
	ExpiresInMinutes int
}

func validateCreateDelivery(in *CreateDeliveryInput) error {
	if in.StoreID == uuid.Nil || in.OrderID == uuid.Nil {
		return apperr.Invalid("MISSING_ID", "storeId and orderId are required")
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return apperr.Invalid("NOTES_TOO_LONG", "notes must be at most 500 characters")
	}
	if err := validateAddress("pickup", &in.Pickup); err != nil {
		return err
	}
	return validateAddress("dropoff", &in.Dropoff)
}

func validateAddress(field string, a *domain.Address) error {
	a.Text = strings.TrimSpace(a.Text)
	if utf8.RuneCountInString(a.Text) > maxAddressLen {
		return apperr.Invalid("ADDRESS_TOO_LONG", field+" address must be at most 300 characters")
	}
	if (a.Lat == nil) != (a.Lng == nil) {
		return apperr.Invalid("INVALID_COORDINATES", field+" needs both lat and lng")
	}
	if a.Lat != nil {
		p := domain.Point{Lat: *a.Lat, Lng: *a.Lng}
		if !p.Valid() || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
			return apperr.Invalid("INVALID_COORDINATES", field+" coordinates out of range")
		}
	}
	return nil
}

func validateCreateRequest(in *CreateRequestInput) error {
	if in.DeliveryID == uuid.Nil || in.CourierID == uuid.Nil {
		return apperr.Invalid("MISSING_ID", "deliveryId and courierId are required")
	}
	in.Message = strings.TrimSpace(in.Message)
	if utf8.RuneCountInString(in.Message) > maxMessageLen {
		return apperr.Invalid("MESSAGE_TOO_LONG", "message must be at most 200 characters")
	}
	if in.ExpiresInMinutes != 0 && (in.ExpiresInMinutes < minExpiryMinutes || in.ExpiresInMinutes > maxExpiryMinutes) {
		return apperr.Invalid("INVALID_EXPIRY", "expiresInMinutes must be between 5 and 1440")
	}
	return nil
}

func parseRequestStatus(raw string) (*domain.RequestStatus, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" || raw == "ALL" {
		return nil, nil
	}
	s := domain.RequestStatus(raw)
	if !s.Valid() {
		return nil, apperr.Invalid("INVALID_STATUS", "unknown request status")
	}
	return &s, nil
}
