package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/matching"
)

// CourierHandler serves courier profile endpoints and the nearby search.
type CourierHandler struct {
	uc      courierUsecase
	matcher matcherUsecase
	logger  logx.Logger
}

// NewCourierHandler wires courier use cases into HTTP handlers.
func NewCourierHandler(logger logx.Logger, uc courierUsecase, matcher matcherUsecase) *CourierHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &CourierHandler{uc: uc, matcher: matcher, logger: logger}
}

// Become handles POST /me/become-courier.
func (h *CourierHandler) Become(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	var req becomeCourierRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	profile, err := h.uc.Become(r.Context(), p.UserID, req.toInput())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, profileToResponse(*profile))
}

// Me handles GET /me/courier.
func (h *CourierHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	profile, err := h.uc.Get(r.Context(), p.UserID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, profileToResponse(*profile))
}

// Update handles PUT /me/courier with a partial body.
func (h *CourierHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	var req updateCourierRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	profile, err := h.uc.Update(r.Context(), req.toModel(p.UserID))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, profileToResponse(*profile))
}

// SetStatus handles POST /couriers/status.
func (h *CourierHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(h.logger, w, r)
	if !ok {
		return
	}
	var req setCourierStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	profile, err := h.uc.SetStatus(r.Context(), p.UserID, req.Status)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, profileToResponse(*profile))
}

// Nearby handles GET /couriers/nearby?lat&lng&radiusKm&vehicleType&status&limit.
func (h *CourierHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q, msg := parseNearby(r)
	if msg != "" {
		writeError(h.logger, w, r, http.StatusBadRequest, msg, "INVALID_QUERY")
		return
	}

	list, err := h.matcher.Nearby(r.Context(), q)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, nearbyToResponse(list))
}

func parseNearby(r *http.Request) (matching.Query, string) {
	v := r.URL.Query()
	var q matching.Query

	latS, lngS := v.Get("lat"), v.Get("lng")
	if (latS == "") != (lngS == "") {
		return q, "lat and lng must be given together"
	}
	if latS != "" {
		lat, err1 := strconv.ParseFloat(latS, 64)
		lng, err2 := strconv.ParseFloat(lngS, 64)
		if err1 != nil || err2 != nil {
			return q, "invalid lat/lng"
		}
		q.At = &domain.Point{Lat: lat, Lng: lng}
	}

	if s := v.Get("radiusKm"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, "invalid radiusKm"
		}
		q.RadiusKm = radius
	}
	if s := v.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return q, "invalid limit"
		}
		q.Limit = limit
	}
	if s := strings.TrimSpace(v.Get("vehicleType")); s != "" {
		vt := domain.VehicleType(strings.ToUpper(s))
		q.VehicleType = &vt
	}
	q.Status = strings.ToUpper(strings.TrimSpace(v.Get("status")))
	return q, ""
}
