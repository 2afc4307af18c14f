package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
)

// Recorder 对齐与导入指标
type Recorder struct {
	registry   *prometheus.Registry
	alignments *prometheus.CounterVec
	labels     prometheus.Histogram
	variables  prometheus.Histogram
	duration   prometheus.Histogram
	imports    *prometheus.CounterVec
}

// NewRecorder 初始化指标
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	alignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labelalign_alignments_total",
		Help: "Alignment runs by outcome",
	}, []string{"outcome"})

	labels := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "labelalign_canonical_labels",
		Help:    "Size of the canonical label space per alignment",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	variables := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "labelalign_variables_per_alignment",
		Help:    "Number of variables in an aligned result set",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "labelalign_alignment_duration_seconds",
		Help:    "Alignment wall time",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labelalign_imports_total",
		Help: "Result set imports by format and outcome",
	}, []string{"format", "outcome"})

	reg.MustRegister(alignments, labels, variables, duration, imports)

	return &Recorder{
		registry:   reg,
		alignments: alignments,
		labels:     labels,
		variables:  variables,
		duration:   duration,
		imports:    imports,
	}
}

// Handler 返回 /metrics 处理器
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveAlignment 实现 alignment.Observer
func (r *Recorder) ObserveAlignment(stats alignment.Stats, err error) {
	r.alignments.WithLabelValues(alignmentOutcome(err)).Inc()
	if err != nil {
		return
	}
	r.labels.Observe(float64(stats.Labels))
	r.variables.Observe(float64(stats.Variables))
	r.duration.Observe(stats.Duration.Seconds())
}

// ObserveImport 实现 importer.ImportObserver
func (r *Recorder) ObserveImport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.imports.WithLabelValues(format, outcome).Inc()
}

func alignmentOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, alignment.ErrMainVariableNotFound):
		return "main_not_found"
	case errors.Is(err, alignment.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, alignment.ErrNonFiniteValue):
		return "non_finite"
	default:
		return "error"
	}
}
