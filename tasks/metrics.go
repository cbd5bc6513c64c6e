package tasks

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics reports upload pipeline activity.
type Metrics struct {
	stageDuration    *prometheus.HistogramVec
	stageFailures    *prometheus.CounterVec
	analysisDegraded prometheus.Counter
	uploadsActive    prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics is registered once with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wardrobe",
				Subsystem: "upload",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each upload stage.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage", "status"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wardrobe",
				Subsystem: "upload",
				Name:      "stage_failures_total",
				Help:      "Uploads that failed, by stage.",
			},
			[]string{"stage"},
		),
		analysisDegraded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wardrobe",
				Subsystem: "upload",
				Name:      "analysis_degraded_total",
				Help:      "Uploads saved without attribute analysis.",
			},
		),
		uploadsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wardrobe",
				Subsystem: "upload",
				Name:      "active",
				Help:      "Uploads currently running.",
			},
		),
	}

	register := func(c prometheus.Collector) prometheus.Collector {
		if err := reg.Register(c); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return already.ExistingCollector
			}
			panic(err)
		}
		return c
	}
	m.stageDuration = register(m.stageDuration).(*prometheus.HistogramVec)
	m.stageFailures = register(m.stageFailures).(*prometheus.CounterVec)
	m.analysisDegraded = register(m.analysisDegraded).(prometheus.Counter)
	m.uploadsActive = register(m.uploadsActive).(prometheus.Gauge)
	return m
}

func (m *Metrics) ObserveStage(stage string, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

func (m *Metrics) IncStageFailure(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncAnalysisDegraded() {
	if m == nil {
		return
	}
	m.analysisDegraded.Inc()
}

func (m *Metrics) IncActive() {
	if m == nil {
		return
	}
	m.uploadsActive.Inc()
}

func (m *Metrics) DecActive() {
	if m == nil {
		return
	}
	m.uploadsActive.Dec()
}
