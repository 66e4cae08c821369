package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"planet-permission-service/internal/permission"
)

const namespace = "planet_permissions"

type Metrics struct {
	DecisionsTotal   *prometheus.CounterVec
	ResolveDuration  *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	EventsTotal      *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Permission decisions by scope, outcome and reason",
			},
			[]string{"scope", "decision", "reason"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time to load data for and resolve a permission",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"scope"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits by entry kind",
			},
			[]string{"kind"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses by entry kind",
			},
			[]string{"kind"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Change events by direction and type",
			},
			[]string{"direction", "type"},
		),
	}

	registry.MustRegister(m.DecisionsTotal, m.ResolveDuration, m.CacheHitsTotal, m.CacheMissesTotal, m.EventsTotal)
	return m
}

func (m *Metrics) RecordDecision(scope string, result permission.Result, started time.Time) {
	m.DecisionsTotal.WithLabelValues(scope, result.Decision.String(), result.Reason.String()).Inc()
	m.ResolveDuration.WithLabelValues(scope).Observe(time.Since(started).Seconds())
}

func (m *Metrics) RecordCache(kind string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(kind).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RecordEvent(direction string, eventType string) {
	m.EventsTotal.WithLabelValues(direction, eventType).Inc()
}

// Serve exposes the registry on /metrics until ctx is cancelled.
func Serve(ctx context.Context, wg *sync.WaitGroup, logger *zap.SugaredLogger, gatherer prometheus.Gatherer, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Infow("serving metrics", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server failed", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("failed to shut down metrics server", "error", err)
		}
	}()
}
