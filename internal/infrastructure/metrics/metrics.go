// Package metrics provides Prometheus counters for agenda store operations.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// taskOperationsTotal records task mutations by operation and outcome.
	// Labels:
	//   - op: Operation name (e.g., "save", "delete", "advance", "cancel")
	//   - status: "success" or "failed"
	taskOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_task_operations_total",
			Help: "Total number of task store operations",
		},
		[]string{"op", "status"},
	)

	// attachmentsTotal records attachment uploads by outcome.
	// Labels:
	//   - status: "stored", "rejected" (size limit), or "failed"
	attachmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_attachments_total",
			Help: "Total number of attachment uploads by outcome",
		},
		[]string{"status"},
	)

	// backupsTotal records backup snapshot attempts by outcome.
	backupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_backups_total",
			Help: "Total number of backup snapshot attempts",
		},
		[]string{"status"},
	)

	// storageErrorsTotal records failures reported by the storage backends.
	// Labels:
	//   - store: "kv" or "objects"
	storageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenda_storage_errors_total",
			Help: "Total number of storage backend errors",
		},
		[]string{"store"},
	)
)

func init() {
	prometheus.MustRegister(taskOperationsTotal)
	prometheus.MustRegister(attachmentsTotal)
	prometheus.MustRegister(backupsTotal)
	prometheus.MustRegister(storageErrorsTotal)
}

// RecordTaskOp records a task store operation outcome.
func RecordTaskOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	taskOperationsTotal.WithLabelValues(op, status).Inc()
}

// RecordAttachment records an attachment upload outcome.
func RecordAttachment(status string) {
	attachmentsTotal.WithLabelValues(status).Inc()
}

// RecordBackup records a backup attempt outcome.
func RecordBackup(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	backupsTotal.WithLabelValues(status).Inc()
}

// RecordStorageError records a storage backend failure.
func RecordStorageError(store string) {
	storageErrorsTotal.WithLabelValues(store).Inc()
}
