package host

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "ftledger"

type metrics struct {
	receipts *prometheus.CounterVec
	gasUsed  prometheus.Counter
	txs      prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "host",
			Name:      "receipts_total",
			Help:      "Number of executed receipts by status.",
		}, []string{"status"}),
		gasUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "host",
			Name:      "gas_used_total",
			Help:      "Gas burnt by executed receipts.",
		}),
		txs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "host",
			Name:      "transactions_total",
			Help:      "Number of accepted transactions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.receipts, m.gasUsed, m.txs)
	}
	return m
}
