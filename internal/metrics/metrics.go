package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsTotal tracks rows flowing through each pipeline stage
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_rows_total",
			Help: "Total number of source rows per pipeline stage and outcome",
		},
		[]string{"stage", "status"}, // "kept", "dropped"
	)

	// ChunksTotal tracks processed source chunks
	ChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_chunks_total",
			Help: "Total number of source chunks processed",
		},
	)

	// DocumentsWrittenTotal tracks committed documents per collection
	DocumentsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_documents_written_total",
			Help: "Total number of documents committed per collection",
		},
		[]string{"collection"},
	)

	// BulkRetriesTotal tracks individual retries after a partial batch failure
	BulkRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_bulk_retries_total",
			Help: "Total number of per-operation retries after an ordered batch failure",
		},
		[]string{"collection", "status"}, // "success", "error"
	)

	// StoreOperationsTotal tracks document store operations
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_store_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"collection", "operation", "status"},
	)

	// StoreOperationDuration tracks document store operation duration
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loader_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	// ChunkDuration tracks end-to-end chunk processing time
	ChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loader_chunk_duration_seconds",
			Help:    "Duration of full chunk processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordValidation records the outcome of patient validation for one chunk
func RecordValidation(kept, dropped int) {
	RowsTotal.WithLabelValues("validate", "kept").Add(float64(kept))
	RowsTotal.WithLabelValues("validate", "dropped").Add(float64(dropped))
}

// RecordResolution records identity resolution outcomes for one chunk
func RecordResolution(resolved, dropped int) {
	RowsTotal.WithLabelValues("resolve", "kept").Add(float64(resolved))
	RowsTotal.WithLabelValues("resolve", "dropped").Add(float64(dropped))
}

// RecordChunk records one fully processed chunk
func RecordChunk(duration time.Duration) {
	ChunksTotal.Inc()
	ChunkDuration.Observe(duration.Seconds())
}

// RecordDocumentsWritten records committed documents for a collection
func RecordDocumentsWritten(collection string, count int) {
	DocumentsWrittenTotal.WithLabelValues(collection).Add(float64(count))
}

// RecordBulkRetry records one individual retry after a batch failure
func RecordBulkRetry(collection, status string) {
	BulkRetriesTotal.WithLabelValues(collection, status).Inc()
}

// RecordStoreOperation records metrics for document store operations
func RecordStoreOperation(collection, operation, status string) {
	StoreOperationsTotal.WithLabelValues(collection, operation, status).Inc()
}

// RecordStoreOperationDuration records document store operation duration
func RecordStoreOperationDuration(collection string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(collection).Observe(duration.Seconds())
}
