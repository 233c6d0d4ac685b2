// Package opsserver serves /metrics and /debug/pprof on a side listener.
package opsserver

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const realm = "dispatch-ops"

// Config holds basic auth credentials. Loopback callers skip auth; remote
// callers are refused while either value is empty.
type Config struct {
	User string
	Pass string
}

// Handler exposes gatherer's metrics and the runtime profiler.
func Handler(cfg Config, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(loopbackOr(chimw.BasicAuth(realm, credentials(cfg))))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Mount("/debug", chimw.Profiler())
	return r
}

func credentials(cfg Config) map[string]string {
	if cfg.User == "" || cfg.Pass == "" {
		return map[string]string{}
	}
	return map[string]string{cfg.User: cfg.Pass}
}

// loopbackOr runs guard for every caller that is not on a loopback address.
func loopbackOr(guard func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := guard(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLoopback(r.RemoteAddr) {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func isLoopback(remoteAddr string) bool {
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
