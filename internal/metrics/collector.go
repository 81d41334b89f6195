package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/ratelens/internal/ast"
	"github.com/roach88/ratelens/internal/decoder"
	"github.com/roach88/ratelens/internal/differ"
)

const namespace = "ratelens"

// Decode outcome and error class label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"

	ClassUnknownOpcode    = "unknown_opcode"
	ClassMalformedOperand = "malformed_operand"
	ClassArityMismatch    = "arity_mismatch"
	ClassOther            = "other"
)

// Collector owns a registry and the ratelens metric families.
// It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	decodesTotal      *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec
	rendersTotal      *prometheus.CounterVec
	changesTotal      *prometheus.CounterVec
	duration          *prometheus.HistogramVec
}

// NewCollector creates and registers the metrics. If registry is nil a new
// one is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		decodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decode",
				Name:      "instructions_total",
				Help:      "Total number of decoded instructions",
			},
			[]string{"template", "outcome"},
		),

		decodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decode",
				Name:      "errors_total",
				Help:      "Total number of decode failures by class",
			},
			[]string{"class"},
		),

		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "steps_total",
				Help:      "Total number of rendered steps",
			},
			[]string{"template"},
		),

		changesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "diff",
				Name:      "changes_total",
				Help:      "Total number of change records",
			},
			[]string{"kind"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of whole-program operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.decodesTotal,
		c.decodeErrorsTotal,
		c.rendersTotal,
		c.changesTotal,
		c.duration,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordDecode counts a batch of decode results.
func (c *Collector) RecordDecode(results []decoder.Result) {
	for _, r := range results {
		if r.OK() {
			c.decodesTotal.WithLabelValues(string(r.Node.Kind()), OutcomeOK).Inc()
			continue
		}
		c.decodesTotal.WithLabelValues("unknown", OutcomeError).Inc()
		c.decodeErrorsTotal.WithLabelValues(ErrorClass(r.Err)).Inc()
	}
}

// RecordRender counts one rendered step.
func (c *Collector) RecordRender(kind ast.Kind) {
	c.rendersTotal.WithLabelValues(string(kind)).Inc()
}

// RecordChanges counts change records by kind.
func (c *Collector) RecordChanges(changes []differ.Change) {
	for _, ch := range changes {
		c.changesTotal.WithLabelValues(string(ch.Kind)).Inc()
	}
}

// ObserveDuration records how long an operation took.
func (c *Collector) ObserveDuration(operation string, d time.Duration) {
	c.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format,
// suitable for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// ErrorClass maps a decode error to its metric label.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, decoder.ErrUnknownOpcode):
		return ClassUnknownOpcode
	case errors.Is(err, decoder.ErrMalformedOperand):
		return ClassMalformedOperand
	case errors.Is(err, decoder.ErrArityMismatch):
		return ClassArityMismatch
	default:
		return ClassOther
	}
}
