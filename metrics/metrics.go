// Package metrics prometheus 指标，进程内单例
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ChatRequests        *prometheus.CounterVec
	ChatLatency         *prometheus.HistogramVec
	RateLimited         *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	WSSubscribers       prometheus.Gauge
	AlertsSent          prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "chatdesk",
				Name:      "chat_requests_total",
				Help:      "Chat requests dispatched to providers",
			}, []string{"provider", "outcome"}),
			ChatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "chatdesk",
				Name:      "chat_latency_seconds",
				Help:      "Provider round trip latency",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			}, []string{"provider"}),
			RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "chatdesk",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			}, []string{"class"}),
			PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "chatdesk",
				Name:      "interaction_persist_failures_total",
				Help:      "Interaction rows that could not be written",
			}),
			WSSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "chatdesk",
				Name:      "ws_subscribers",
				Help:      "Connected metrics websocket subscribers",
			}),
			AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "chatdesk",
				Name:      "health_alerts_sent_total",
				Help:      "Error rate alert emails sent",
			}),
		}
		prometheus.MustRegister(
			global.ChatRequests,
			global.ChatLatency,
			global.RateLimited,
			global.PersistenceFailures,
			global.WSSubscribers,
			global.AlertsSent,
		)
	})
	return global
}
