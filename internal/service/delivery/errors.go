package delivery

import "service-dispatch/internal/apperr"

// Error codes returned to clients.
const (
	CodeStoreNotFound      = "STORE_NOT_FOUND"
	CodeStoreForbidden     = "STORE_FORBIDDEN"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeOrderStoreMismatch = "ORDER_STORE_MISMATCH"
	CodeDeliveryExists     = "DELIVERY_EXISTS"
	CodeDeliveryNotFound   = "DELIVERY_NOT_FOUND"
	CodeDeliveryForbidden  = "DELIVERY_FORBIDDEN"
	CodeDeliveryClosed     = "DELIVERY_CLOSED"
	CodeDeliveryTaken      = "DELIVERY_TAKEN"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeCourierNotFound    = "COURIER_NOT_FOUND"
	CodeCourierUnavailable = "COURIER_NOT_AVAILABLE"
	CodeCourierAssigned    = "COURIER_ALREADY_ASSIGNED"
	CodeRequestExists      = "REQUEST_EXISTS"
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeRequestForbidden   = "REQUEST_FORBIDDEN"
	CodeRequestNotPending  = "REQUEST_NOT_PENDING"
	CodeRequestExpired     = "REQUEST_EXPIRED"
)

const offerGone = "offer no longer available"

var (
	errDeliveryNotFound   = apperr.NotFound(CodeDeliveryNotFound, "delivery does not exist")
	errDeliveryForbidden  = apperr.Forbidden(CodeDeliveryForbidden, "not a participant of this delivery")
	errDeliveryClosed     = apperr.Conflict(CodeDeliveryClosed, "delivery already closed")
	errRequestNotFound    = apperr.NotFound(CodeRequestNotFound, "offer does not exist")
	errRequestForbidden   = apperr.Forbidden(CodeRequestForbidden, "not your offer")
	errRequestNotPending  = apperr.Conflict(CodeRequestNotPending, offerGone)
	errRequestExpired     = apperr.Conflict(CodeRequestExpired, "offer expired")
	errDeliveryTaken      = apperr.Conflict(CodeDeliveryTaken, offerGone)
	errCourierUnavailable = apperr.Conflict(CodeCourierUnavailable, "courier is not available")
)
