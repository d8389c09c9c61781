// Package metrics exposes prometheus instruments for the payroll engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions        *prometheus.CounterVec
	CalculationErrors  prometheus.Counter
	LedgerEntries      *prometheus.CounterVec
	OverduePayrollRuns prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payrun_transitions_total",
			Help: "Payroll run state transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		CalculationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payrun_calculation_errors_total",
			Help: "Per-employee statutory calculation failures.",
		}),
		LedgerEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payrun_ledger_entries_total",
			Help: "Journal entries posted by source type.",
		}, []string{"source_type"}),
		OverduePayrollRuns: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "payrun_overdue_runs",
			Help: "Finalized runs currently past their statutory due date.",
		}),
	}
}

func (m *Metrics) RecordTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordCalculationError() {
	if m == nil {
		return
	}
	m.CalculationErrors.Inc()
}

func (m *Metrics) RecordLedgerEntry(sourceType string) {
	if m == nil {
		return
	}
	m.LedgerEntries.WithLabelValues(sourceType).Inc()
}

func (m *Metrics) SetOverdueRuns(count int) {
	if m == nil {
		return
	}
	m.OverduePayrollRuns.Set(float64(count))
}
