package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for store statements.
// A nil *Metrics records nothing.
type Metrics struct {
	StatementsTotal   *prometheus.CounterVec
	StatementDuration *prometheus.HistogramVec
	RowsRead          *prometheus.CounterVec
}

// NewMetrics creates the store collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaporm_store_statements_total",
				Help: "Total number of statements sent to the store",
			},
			[]string{"store", "op", "outcome"},
		),
		StatementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaporm_store_statement_duration_seconds",
				Help:    "Statement execution time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store", "op"},
		),
		RowsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaporm_store_rows_read_total",
				Help: "Total number of rows read from the store",
			},
			[]string{"store"},
		),
	}
}

func (m *Metrics) observe(store, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StatementsTotal.WithLabelValues(store, op, outcome).Inc()
	m.StatementDuration.WithLabelValues(store, op).Observe(d.Seconds())
}

func (m *Metrics) addRows(store string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsRead.WithLabelValues(store).Add(float64(n))
}
