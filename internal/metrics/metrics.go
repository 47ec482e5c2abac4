// Registers:
//
//	#tickshard_shards_opened_total{kind}
//	#tickshard_shards_skipped_total{kind,reason}
//	#tickshard_row_groups_scanned_total{kind}
//	#tickshard_rows_emitted_total{kind}
//	#tickshard_mirror_objects_total{result}
//	#go_* and process_* system metrics
//
// Serve exposes them on /metrics using the Prometheus HTTP handler.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tickshard/logger"
)

var (
	once sync.Once

	shardsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickshard_shards_opened_total",
			Help: "Number of shard files opened by readers",
		},
		[]string{"kind"},
	)
	shardsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickshard_shards_skipped_total",
			Help: "Number of shard files abandoned because of an error",
		},
		[]string{"kind", "reason"},
	)
	rowGroupsScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickshard_row_groups_scanned_total",
			Help: "Number of row groups decoded",
		},
		[]string{"kind"},
	)
	rowsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickshard_rows_emitted_total",
			Help: "Number of in-window rows returned to callers",
		},
		[]string{"kind"},
	)
	mirrorObjects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickshard_mirror_objects_total",
			Help: "Number of shard objects handled by the S3 mirror",
		},
		[]string{"result"},
	)
)

// Init registers the collectors with the default registry once.
func Init() {
	once.Do(func() {
		_ = prometheus.Register(shardsOpened)
		_ = prometheus.Register(shardsSkipped)
		_ = prometheus.Register(rowGroupsScanned)
		_ = prometheus.Register(rowsEmitted)
		_ = prometheus.Register(mirrorObjects)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Serve registers the collectors and serves /metrics on addr in the
// background. The returned server is shut down by the caller.
func Serve(addr string) *http.Server {
	Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().WithComponent("metrics").WithError(err).Error("metrics server failed")
		}
	}()
	return srv
}

func ShardOpened(kind string) {
	shardsOpened.WithLabelValues(kind).Inc()
}

func ShardSkipped(kind, reason string) {
	shardsSkipped.WithLabelValues(kind, reason).Inc()
}

func RowGroupScanned(kind string) {
	rowGroupsScanned.WithLabelValues(kind).Inc()
}

func RowsEmitted(kind string, n int) {
	rowsEmitted.WithLabelValues(kind).Add(float64(n))
}

// MirrorObject counts one mirror outcome: downloaded, present or missing.
func MirrorObject(result string) {
	mirrorObjects.WithLabelValues(result).Inc()
}
