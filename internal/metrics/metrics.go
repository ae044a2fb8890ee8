// Package metrics exposes Prometheus counters for a node invocation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one invocation. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	imagesTotal         *prometheus.CounterVec
	skippedImages       *prometheus.CounterVec
	recognitionDuration *prometheus.HistogramVec
	engineTerminations  prometheus.Counter
	engineCreations     prometheus.Counter
	itemsTotal          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		imagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tessnode_images_total",
				Help: "Total number of images recognized",
			},
			[]string{"source", "outcome"}, // source: image, pdf; outcome: ok, dropped, timeout, error
		),
		skippedImages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tessnode_skipped_images_total",
				Help: "PDF images skipped during normalization",
			},
			[]string{"reason"},
		),
		recognitionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tessnode_recognition_duration_seconds",
				Help:    "Recognition duration per image in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25, 60},
			},
			[]string{"mode"},
		),
		engineTerminations: f.NewCounter(prometheus.CounterOpts{
			Name: "tessnode_engine_terminations_total",
			Help: "Engine workers terminated after a recognition timeout",
		}),
		engineCreations: f.NewCounter(prometheus.CounterOpts{
			Name: "tessnode_engine_creations_total",
			Help: "Engine workers created",
		}),
		itemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tessnode_items_total",
				Help: "Input items processed",
			},
			[]string{"outcome"}, // ok, failed, continued
		),
	}
}

func (m *Metrics) ImageProcessed(source, outcome string) {
	if m == nil {
		return
	}
	m.imagesTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ImageSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedImages.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRecognition(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.recognitionDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) EngineTerminated() {
	if m == nil {
		return
	}
	m.engineTerminations.Inc()
}

func (m *Metrics) EngineCreated() {
	if m == nil {
		return
	}
	m.engineCreations.Inc()
}

func (m *Metrics) ItemProcessed(outcome string) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
