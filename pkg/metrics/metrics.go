// Package metrics provides Prometheus metrics for the chunk store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry for all chunkd metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ChunksWritten counts chunks physically written to the backend
	ChunksWritten = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkd",
		Name:      "chunks_written_total",
		Help:      "Number of chunks physically written to the store",
	})

	// ChunksDeduplicated counts chunk writes short-circuited by deduplication
	ChunksDeduplicated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkd",
		Name:      "chunks_deduplicated_total",
		Help:      "Number of chunk writes elided because the chunk was already stored",
	})

	// ChunksDeleted counts chunks physically removed by garbage collection
	ChunksDeleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkd",
		Name:      "chunks_deleted_total",
		Help:      "Number of chunks physically deleted after their reference count reached zero",
	})

	// FileOperations counts file manager operations by kind and outcome
	FileOperations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chunkd",
		Name:      "file_operations_total",
		Help:      "Number of file operations by kind and outcome",
	}, []string{"op", "outcome"})

	// RefcountUnderflows counts decrements of absent or zero reference counts
	RefcountUnderflows = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkd",
		Name:      "refcount_underflows_total",
		Help:      "Number of reference count decrements on absent or zero counts",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// OpSuccess records a successful file operation
func OpSuccess(op string) {
	FileOperations.WithLabelValues(op, "success").Inc()
}

// OpFailure records a failed file operation
func OpFailure(op string) {
	FileOperations.WithLabelValues(op, "failure").Inc()
}

// Handler returns the HTTP handler serving this registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
