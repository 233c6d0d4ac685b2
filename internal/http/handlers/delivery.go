package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/delivery"
)

// DeliveryHandler serves the dispatch endpoints.
type DeliveryHandler struct {
	usecase deliveryUsecase
	history historyUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase, history historyUsecase) *DeliveryHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &DeliveryHandler{usecase: uc, history: history, logger: logger}
}

// Create handles POST /stores/{storeId}/orders/{orderId}/delivery.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	storeID, ok := uuidFromURL(h.logger, w, r, "storeId")
	if !ok {
		return
	}
	orderID, ok := uuidFromURL(h.logger, w, r, "orderId")
	if !ok {
		return
	}
	var req createDeliveryRequest
	if ok := decodeOptionalJSON(h.logger, w, r, &req); !ok {
		return
	}

	d, err := h.usecase.CreateDelivery(r.Context(), delivery.CreateDeliveryInput{
		StoreID:  storeID,
		OrderID:  orderID,
		SellerID: p.UserID,
		Pickup:   req.Pickup,
		Dropoff:  req.Dropoff,
		Notes:    req.Notes,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/deliveries/"+d.ID.String())
	writeJSON(h.logger, w, r, http.StatusCreated, deliveryToResponse(*d))
}

// CreateRequest handles POST /deliveries/{deliveryId}/requests.
func (h *DeliveryHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	deliveryID, ok := uuidFromURL(h.logger, w, r, "deliveryId")
	if !ok {
		return
	}
	var req createOfferRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	dr, err := h.usecase.CreateRequest(r.Context(), delivery.CreateRequestInput{
		DeliveryID:       deliveryID,
		SellerID:         p.UserID,
		CourierID:        req.CourierID,
		Message:          req.Message,
		ExpiresInMinutes: req.ExpiresInMinutes,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, requestToResponse(*dr))
}

// Get handles GET /deliveries/{deliveryId}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withDelivery(w, r, http.StatusOK, h.usecase.GetDelivery)
}

// Pickup handles POST /deliveries/{deliveryId}/pickup.
func (h *DeliveryHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.withDelivery(w, r, http.StatusOK, h.usecase.Pickup)
}

// Transit handles POST /deliveries/{deliveryId}/transit.
func (h *DeliveryHandler) Transit(w http.ResponseWriter, r *http.Request) {
	h.withDelivery(w, r, http.StatusOK, h.usecase.StartTransit)
}

// Complete handles POST /deliveries/{deliveryId}/complete.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.withDelivery(w, r, http.StatusOK, h.usecase.Complete)
}

// Cancel handles POST /deliveries/{deliveryId}/cancel.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withDelivery(w, r, http.StatusOK, h.usecase.Cancel)
}

type deliveryAction func(ctx context.Context, deliveryID, userID uuid.UUID) (*domain.Delivery, error)

func (h *DeliveryHandler) withDelivery(w http.ResponseWriter, r *http.Request, status int, action deliveryAction) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	deliveryID, ok := uuidFromURL(h.logger, w, r, "deliveryId")
	if !ok {
		return
	}

	d, err := action(r.Context(), deliveryID, p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, status, deliveryToResponse(*d))
}

// Locations handles GET /deliveries/{deliveryId}/locations.
func (h *DeliveryHandler) Locations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	deliveryID, ok := uuidFromURL(h.logger, w, r, "deliveryId")
	if !ok {
		return
	}

	list, err := h.history.History(r.Context(), deliveryID, p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, locationsToResponse(list))
}

// MyRequests handles GET /me/delivery-requests?status=.
func (h *DeliveryHandler) MyRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.usecase.ListRequestsForCourier(r.Context(), p.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, requestsToResponse(list))
}

// Accept handles POST /delivery-requests/{requestId}/accept.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	requestID, ok := uuidFromURL(h.logger, w, r, "requestId")
	if !ok {
		return
	}

	res, err := h.usecase.AcceptRequest(r.Context(), requestID, p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, acceptResponse{
		Request:  requestToResponse(res.Request),
		Delivery: deliveryToResponse(res.Delivery),
	})
}

// Decline handles POST /delivery-requests/{requestId}/decline.
func (h *DeliveryHandler) Decline(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	requestID, ok := uuidFromURL(h.logger, w, r, "requestId")
	if !ok {
		return
	}

	dr, err := h.usecase.DeclineRequest(r.Context(), requestID, p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, requestToResponse(*dr))
}

// Tracking handles GET /orders/{orderId}/tracking.
func (h *DeliveryHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	orderID, ok := uuidFromURL(h.logger, w, r, "orderId")
	if !ok {
		return
	}

	t, err := h.usecase.TrackingByOrder(r.Context(), orderID, p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, trackingToResponse(*t))
}
