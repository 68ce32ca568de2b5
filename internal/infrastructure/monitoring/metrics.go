package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	SchedulesComputedTotal *prometheus.CounterVec
	ScoresComputedTotal    *prometheus.CounterVec
	SettlementQuotesTotal  prometheus.Counter
	PaymentsTotal          *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		SchedulesComputedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_schedules_computed_total",
				Help: "Total number of amortization schedules computed.",
			},
			[]string{"interest_type"},
		),
		ScoresComputedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_scores_computed_total",
				Help: "Total number of credit scores computed.",
			},
			[]string{"band"},
		),
		SettlementQuotesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_settlement_quotes_total",
				Help: "Total number of early settlement quotes produced.",
			},
		),
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_total",
				Help: "Total number of payment attempts by outcome.",
			},
			[]string{"status"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordScheduleComputed(interestType string) {
	Business.SchedulesComputedTotal.WithLabelValues(interestType).Inc()
}

func RecordScoreComputed(band string) {
	Business.ScoresComputedTotal.WithLabelValues(band).Inc()
}

func RecordSettlementQuote() {
	Business.SettlementQuotesTotal.Inc()
}

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}
