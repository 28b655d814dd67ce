package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

const (
	ledgerEventsMetricName   = "clockwise_ledger_events"
	eventsRecordedMetricName = "clockwise_events_recorded_total"
	correctionsMetricName    = "clockwise_corrections_total"
	importRowsMetricName     = "clockwise_import_rows_total"
	auditEntriesMetricName   = "clockwise_audit_entries"
)

var (
	ledgerEventsMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: ledgerEventsMetricName,
		Help: "Number of attendance events in the ledger, by origin and treatment status",
	}, []string{"origin", "status"})
	eventsRecordedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: eventsRecordedMetricName,
		Help: "Punches recorded through the API since process start, by origin",
	}, []string{"origin"})
	correctionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: correctionsMetricName,
		Help: "Correction workflow executions since process start, by outcome",
	}, []string{"outcome"})
	importRowsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: importRowsMetricName,
		Help: "Bulk import rows processed since process start, by result",
	}, []string{"result"})
	auditEntriesMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: auditEntriesMetricName,
		Help: "Number of entries in the audit log",
	})
)

func RecordEventCreated(origin string) {
	eventsRecordedMetric.WithLabelValues(origin).Inc()
}

func RecordCorrection(outcome string) {
	correctionsMetric.WithLabelValues(outcome).Inc()
}

func RecordImport(inserted, duplicated, invalid int) {
	importRowsMetric.WithLabelValues("inserted").Add(float64(inserted))
	importRowsMetric.WithLabelValues("duplicated").Add(float64(duplicated))
	importRowsMetric.WithLabelValues("invalid").Add(float64(invalid))
}

type ledgerCount struct {
	Origin          models.Origin
	TreatmentStatus models.TreatmentStatus
	Count           int64
}

// RefreshMetricsDB recomputes the DB-derived gauges. The serve command calls
// it on a ticker.
func RefreshMetricsDB(dbc *db.DB) error {
	var counts []ledgerCount
	res := dbc.DB.Model(&models.AttendanceEvent{}).
		Select("origin, treatment_status, count(*) as count").
		Group("origin, treatment_status").
		Scan(&counts)
	if res.Error != nil {
		return res.Error
	}
	for _, c := range counts {
		ledgerEventsMetric.WithLabelValues(string(c.Origin), string(c.TreatmentStatus)).Set(float64(c.Count))
	}

	var auditCount int64
	if res := dbc.DB.Model(&models.AuditLog{}).Count(&auditCount); res.Error != nil {
		return res.Error
	}
	auditEntriesMetric.Set(float64(auditCount))
	return nil
}
