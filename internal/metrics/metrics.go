// Package metrics exposes client-side counters on a debug listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionsync_events_received_total",
		Help: "Inbound channel events by event name.",
	}, []string{"event"})

	BidsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctionsync_bids_submitted_total",
		Help: "Outbound bid commands handed to the transport.",
	})

	BidsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionsync_bids_rejected_total",
		Help: "Server-rejected bids by reason code.",
	}, []string{"code"})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctionsync_reconnects_total",
		Help: "Connection drops that triggered a reconnect cycle.",
	})

	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auctionsync_connected",
		Help: "1 while the channel is connected, 0 otherwise.",
	})
)

// Serve exposes the default registry on addr. Blocks; run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
