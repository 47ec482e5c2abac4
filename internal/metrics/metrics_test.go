package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScanCounters(t *testing.T) {
	before := testutil.ToFloat64(rowsEmitted.WithLabelValues("depth"))
	RowsEmitted("depth", 5)
	RowsEmitted("depth", 2)
	if got := testutil.ToFloat64(rowsEmitted.WithLabelValues("depth")) - before; got != 7 {
		t.Fatalf("expected 7 rows, got %v", got)
	}

	before = testutil.ToFloat64(shardsSkipped.WithLabelValues("top", "shard_unavailable"))
	ShardSkipped("top", "shard_unavailable")
	if got := testutil.ToFloat64(shardsSkipped.WithLabelValues("top", "shard_unavailable")) - before; got != 1 {
		t.Fatalf("expected one skipped shard, got %v", got)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
	ShardOpened("trade")
	RowGroupScanned("trade")
	MirrorObject("downloaded")
}
