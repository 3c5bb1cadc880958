// Package metrics exposes production counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/markov/internal/sequencer"
)

// Metrics holds the collectors of one registry. It implements
// sequencer.Observer so a Sequencer reports every closed sequence.
type Metrics struct {
	registry *prometheus.Registry

	productions    *prometheus.CounterVec // by domain and outcome (ok/error)
	sequences      *prometheus.CounterVec // by reason and accepted
	sequenceLength prometheus.Histogram   // emitted tokens per sequence
	chainKeys      *prometheus.GaugeVec   // by chain name
}

var _ sequencer.Observer = (*Metrics)(nil)

// New creates and registers the collectors on a fresh registry. Go runtime
// and process collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		productions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markov",
			Name:      "productions_total",
			Help:      "Production requests served",
		}, []string{"domain", "outcome"}),

		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markov",
			Name:      "sequences_total",
			Help:      "Sequences closed by the sequencer",
		}, []string{"reason", "accepted"}),

		sequenceLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "markov",
			Name:      "sequence_length",
			Help:      "Tokens emitted per closed sequence",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),

		chainKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "markov",
			Name:      "chain_keys",
			Help:      "Keys held by a loaded chain",
		}, []string{"chain"}),
	}
	m.registry.MustRegister(m.productions, m.sequences, m.sequenceLength, m.chainKeys)
	if withRuntime {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// ObserveSequence implements sequencer.Observer.
func (m *Metrics) ObserveSequence(reason string, length int, accepted bool) {
	acc := "false"
	if accepted {
		acc = "true"
	}
	m.sequences.WithLabelValues(reason, acc).Inc()
	m.sequenceLength.Observe(float64(length))
}

// ObserveProduction counts one production request.
func (m *Metrics) ObserveProduction(domain string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.productions.WithLabelValues(domain, outcome).Inc()
}

// SetChainKeys records the key count of a loaded chain.
func (m *Metrics) SetChainKeys(chain string, keys int) {
	m.chainKeys.WithLabelValues(chain).Set(float64(keys))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
