package metrics

import (
	"net/http"

	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector records quote/job transitions and payment reconciliation outcomes
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	logger      *zap.Logger
}

// NewCollector registers the lifecycle counters on a private registry.
// namespace prefixes every metric name and may be empty.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Quote and job status transitions.",
		}, []string{"entity", "from", "to"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconciliations_total",
			Help:      "Payment reconciliation attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		logger: logger,
	}
	c.registry.MustRegister(
		c.transitions,
		c.outcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Transition counts a status change. An empty from marks creation.
func (c *Collector) Transition(entityType, from, to string) {
	if from == "" {
		from = "none"
	}
	c.transitions.WithLabelValues(entityType, from, to).Inc()
}

// ReconcileOutcome counts one reconciliation attempt
func (c *Collector) ReconcileOutcome(kind entity.PaymentKind, outcome string) {
	c.outcomes.WithLabelValues(string(kind), outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(c.logger),
		ErrorHandling: promhttp.ContinueOnError,
	})
}
