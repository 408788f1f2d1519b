package clicks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clicksQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlinks_clicks_queued_total",
		Help: "Clicks accepted into the aggregation queue",
	})
	clicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlinks_clicks_dropped_total",
		Help: "Clicks dropped because the aggregation queue was full",
	})
	flushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlinks_click_flush_errors_total",
		Help: "Failed batch writes of aggregated click counters",
	})
)
