package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_sweep_duration_seconds",
			Help:    "Duration of each full crawl sweep in seconds.",
			Buckets: []float64{10, 30, 60, 300, 900, 1800},
		},
	)
	ListingsFoundCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listings_found_total",
			Help: "Total number of new listings that passed the known-id diff.",
		},
	)
	ListingsNotifiedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listings_notified_total",
			Help: "Total number of listings dispatched to notification adapters.",
		},
	)
	ProviderRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_provider_runs_total",
			Help: "Total number of provider pipeline runs by outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func StartMetricsServer(port int) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(ListingsFoundCounter)
	prometheus.MustRegister(ListingsNotifiedCounter)
	prometheus.MustRegister(ProviderRunsCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), nil))
	}()
}
