package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"service-dispatch/internal/domain"
)

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// Dispatch holds the domain counters of the dispatch service.
// It satisfies the metrics ports of the delivery, tracking and ws packages.
type Dispatch struct {
	transitions     *prometheus.CounterVec
	acceptConflicts *prometheus.CounterVec
	locationReports *prometheus.CounterVec
	requestsExpired prometheus.Counter
	wsConnections   prometheus.Gauge
	wsFramesDropped *prometheus.CounterVec
	publishRetries  prometheus.Counter
	notifyDropped   prometheus.Counter
}

// NewDispatch creates the dispatch collectors and registers them on reg.
func NewDispatch(reg prometheus.Registerer) (*Dispatch, error) {
	d := &Dispatch{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_delivery_transitions_total",
			Help: "Delivery state transitions by target status",
		}, []string{"status"}),
		acceptConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_accept_conflicts_total",
			Help: "Rejected accept attempts by error code",
		}, []string{"code"}),
		locationReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_location_reports_total",
			Help: "Courier location reports by outcome",
		}, []string{"outcome"}),
		requestsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_requests_expired_total",
			Help: "Delivery requests expired by the background sweep",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Open websocket connections",
		}),
		wsFramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ws_frames_dropped_total",
			Help: "Frames dropped for slow websocket consumers by event",
		}, []string{"event"}),
		publishRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_publish_retries_total",
			Help: "Retried notification publishes",
		}),
		notifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_dropped_total",
			Help: "Notifications dropped because the delivery queue was full",
		}),
	}

	for _, c := range []prometheus.Collector{
		d.transitions, d.acceptConflicts, d.locationReports,
		d.requestsExpired, d.wsConnections, d.wsFramesDropped, d.publishRetries, d.notifyDropped,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ObserveTransition counts a committed delivery transition.
func (d *Dispatch) ObserveTransition(to domain.DeliveryStatus) {
	d.transitions.WithLabelValues(string(to)).Inc()
}

// ObserveAcceptConflict counts an accept rejected with code.
func (d *Dispatch) ObserveAcceptConflict(code string) {
	d.acceptConflicts.WithLabelValues(code).Inc()
}

// ObserveLocationReport counts a location report outcome.
func (d *Dispatch) ObserveLocationReport(outcome string) {
	d.locationReports.WithLabelValues(outcome).Inc()
}

// ObserveExpired adds n requests expired by one sweep.
func (d *Dispatch) ObserveExpired(n int64) {
	if n > 0 {
		d.requestsExpired.Add(float64(n))
	}
}

func (d *Dispatch) ConnectionOpened() { d.wsConnections.Inc() }

func (d *Dispatch) ConnectionClosed() { d.wsConnections.Dec() }

func (d *Dispatch) FrameDropped(event string) {
	d.wsFramesDropped.WithLabelValues(event).Inc()
}

// PublishRetries counts notification publish retries.
func (d *Dispatch) PublishRetries() prometheus.Counter { return d.publishRetries }

// NotificationsDropped counts notifications lost to a full delivery queue.
func (d *Dispatch) NotificationsDropped() prometheus.Counter { return d.notifyDropped }
