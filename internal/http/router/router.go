package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/http/handlers"
	mw "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/logx"
)

const requestTimeout = 5 * time.Second

// Deps are the handlers and middleware the router mounts.
// RateLimit may be nil.
type Deps struct {
	Logger       logx.Logger
	Base         *handlers.Handlers
	Couriers     *handlers.CourierHandler
	Deliveries   *handlers.DeliveryHandler
	Stream       http.Handler
	Authenticate func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logx.Nop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.Observability(logger))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.NotFound(d.Base.NotFound)
	r.MethodNotAllowed(d.Base.MethodNotAllowed)

	// Long-lived; authenticates itself before upgrading.
	r.Get("/ws/delivery", d.Stream.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(d.Authenticate)
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}

		r.Post("/me/become-courier", d.Couriers.Become)
		r.Get("/deliveries/{deliveryId}", d.Deliveries.Get)
		r.Get("/deliveries/{deliveryId}/locations", d.Deliveries.Locations)
		r.Post("/deliveries/{deliveryId}/cancel", d.Deliveries.Cancel)
		r.Get("/orders/{orderId}/tracking", d.Deliveries.Tracking)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(domain.RoleSeller))
			r.Post("/stores/{storeId}/orders/{orderId}/delivery", d.Deliveries.Create)
			r.Post("/deliveries/{deliveryId}/requests", d.Deliveries.CreateRequest)
			r.Get("/couriers/nearby", d.Couriers.Nearby)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(domain.RoleCourier))
			r.Get("/me/courier", d.Couriers.Me)
			r.Put("/me/courier", d.Couriers.Update)
			r.Post("/couriers/status", d.Couriers.SetStatus)
			r.Get("/me/delivery-requests", d.Deliveries.MyRequests)
			r.Post("/delivery-requests/{requestId}/accept", d.Deliveries.Accept)
			r.Post("/delivery-requests/{requestId}/decline", d.Deliveries.Decline)
			r.Post("/deliveries/{deliveryId}/pickup", d.Deliveries.Pickup)
			r.Post("/deliveries/{deliveryId}/transit", d.Deliveries.Transit)
			r.Post("/deliveries/{deliveryId}/complete", d.Deliveries.Complete)
		})
	})

	return r
}
