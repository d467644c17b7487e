// Package metrics — Prometheus metrikleri.
//
// promauto ile package-level register edilir; /metrics endpoint'i
// promhttp.Handler() ile main'de bağlanır.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections, o anda açık WebSocket bağlantı sayısı.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nomadnotes_ws_connections",
		Help: "Number of currently open WebSocket connections",
	})

	// WSEventsTotal, op bazında işlenen WebSocket event sayısı.
	WSEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomadnotes_ws_events_total",
		Help: "Total WebSocket events processed, by op",
	}, []string{"op"})

	// ActiveCalls, o anda aktif (ringing veya in-call) çağrı sayısı.
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nomadnotes_active_calls",
		Help: "Number of currently active calls (ringing or connected)",
	})

	// CallsTotal, sonuç bazında toplam çağrı sayısı.
	// outcome: completed, rejected, missed, busy, failed
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomadnotes_calls_total",
		Help: "Total calls by media type and outcome",
	}, []string{"type", "outcome"})

	// MessagesTotal, gönderilen chat mesajı sayısı.
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomadnotes_messages_total",
		Help: "Total chat messages sent",
	})

	// BookingsTotal, durum geçişi bazında booking sayısı.
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomadnotes_bookings_total",
		Help: "Total booking status transitions",
	}, []string{"status"})
)
