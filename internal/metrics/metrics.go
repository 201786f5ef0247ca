// Package metrics defines Prometheus metrics for interaction dispatch.
//
// Metric naming follows Prometheus conventions:
//   - tempo_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Collector owns the dispatch metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	// InteractionsTotal counts interactions by kind, terminal outcome and reason.
	InteractionsTotal *prometheus.CounterVec
	// CallbackFailuresTotal counts callbacks that returned an error or panicked.
	CallbackFailuresTotal *prometheus.CounterVec
	// DispatchDurationSeconds is the time spent gating one interaction.
	DispatchDurationSeconds *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		InteractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_interactions_total",
				Help: "Total interactions by kind, outcome and reason.",
			},
			[]string{"kind", "outcome", "reason"},
		),
		CallbackFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_callback_failures_total",
				Help: "Total command callbacks that failed.",
			},
			[]string{"command"},
		),
		DispatchDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tempo_dispatch_duration_seconds",
				Help:    "Time from receiving an interaction to its terminal state.",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"kind"},
		),
	}
	c.registry.MustRegister(
		c.InteractionsTotal,
		c.CallbackFailuresTotal,
		c.DispatchDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Observe records one interaction reaching a terminal state.
func (c *Collector) Observe(kind, outcome, reason string, took time.Duration) {
	c.InteractionsTotal.WithLabelValues(kind, outcome, reason).Inc()
	c.DispatchDurationSeconds.WithLabelValues(kind).Observe(took.Seconds())
}

// CallbackFailed records a failed command callback.
func (c *Collector) CallbackFailed(command string) {
	c.CallbackFailuresTotal.WithLabelValues(command).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
