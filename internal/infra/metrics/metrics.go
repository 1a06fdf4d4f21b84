// Package metrics exposes optional Prometheus instrumentation for one
// `generate` run: round duration, recipients processed, distributable
// per token, and apportionment dust. Not part of the teacher's stack
// (it ships no metrics endpoint); wired here against
// github.com/prometheus/client_golang since it is the ecosystem's
// standard choice and SPEC_FULL.md §2.1 calls for an operational
// metrics surface.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the round-level instrumentation.
type Metrics struct {
	RoundDuration       prometheus.Histogram
	RecipientsProcessed prometheus.Gauge
	DistributablePerToken *prometheus.GaugeVec
	ApportionmentDust    *prometheus.GaugeVec
	PublishFailures      prometheus.Counter

	registry *prometheus.Registry
}

// New builds and registers the round-level collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RoundDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Namespace: "distributor",
			Name:      "round_duration_seconds",
			Help:      "Wall-clock duration of one generate round.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RecipientsProcessed: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Namespace: "distributor",
			Name:      "recipients_processed",
			Help:      "Number of (recipient, token) value rows in the last round's blob.",
		}),
		DistributablePerToken: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "distributor",
			Name:      "distributable_per_token",
			Help:      "newDistributable computed for each token in the last round (as a float approximation).",
		}, []string{"token"}),
		ApportionmentDust: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "distributor",
			Name:      "apportionment_dust",
			Help:      "Rounding dust left in the contract for each token in the last round.",
		}, []string{"token"}),
		PublishFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "distributor",
			Name:      "publish_failures_total",
			Help:      "Count of rounds that failed before or during setMerkleRoot submission.",
		}),
		registry: registry,
	}
	return m
}

// Serve starts a local metrics endpoint and blocks until ctx is
// cancelled or the server fails.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
