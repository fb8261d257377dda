package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "semtui_http_request_duration_seconds",
		Help: "Time spent serving API operations.",
	}, []string{"operation"})

	matchPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "semtui_match_promotions_total",
		Help: "Cell matches set through the API.",
	})

	rejectedSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "semtui_rejected_searches_total",
		Help: "Search requests rejected by the injection screen.",
	})
)

// observe starts the duration timer of an operation; call the result when done.
func observe(operation string) func() {
	timer := prometheus.NewTimer(requestDuration.WithLabelValues(operation))
	return func() { timer.ObserveDuration() }
}
