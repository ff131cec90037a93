// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HitsTotal counts accepted presence events by kind.
	HitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_hits_total",
		Help: "Presence events accepted, by kind.",
	}, []string{"kind"})

	// DegradedTotal counts hits acknowledged without a durable write.
	DegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_degraded_total",
		Help: "Hits acknowledged while the presence store was unavailable.",
	})

	// StreamSubscribers gauges currently connected online-count subscribers.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "online_stream_subscribers",
		Help: "Currently connected online-count stream subscribers.",
	})

	// StreamEventsTotal counts emitted snapshot events by transport.
	StreamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "online_stream_events_total",
		Help: "Snapshot events emitted to subscribers, by transport.",
	}, []string{"transport"})

	// SuppressedTicksTotal counts stream ticks skipped because the store
	// was unavailable.
	SuppressedTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "online_stream_suppressed_ticks_total",
		Help: "Stream ticks skipped while the presence store was unavailable.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
