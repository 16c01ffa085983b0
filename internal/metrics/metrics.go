package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickeats",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total number of orders created.",
	})
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quickeats",
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Total number of applied status transitions.",
	}, []string{"to"})
	EventsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickeats",
		Subsystem: "notify",
		Name:      "events_published_total",
		Help:      "Total number of events pushed to live connections.",
	})
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickeats",
		Subsystem: "notify",
		Name:      "events_dropped_total",
		Help:      "Total number of events dropped on slow or dead connections.",
	})
)

func init() {
	prometheus.MustRegister(OrdersCreated, Transitions, EventsPublished, EventsDropped)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
