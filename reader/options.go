package reader

import (
	"tickshard/internal/column"
	"tickshard/logger"
)

// Options configure every reader a DB creates. The zero value reads parquet
// files from disk with default batching and no order checks.
type Options struct {
	// Open opens a shard. Defaults to the parquet binding.
	Open column.Opener
	// Prefetch issues a read-ahead hint for the next shard before the
	// current one is opened.
	Prefetch bool
	// Debug logs every probed shard path.
	Debug bool
	// BatchSize is the number of leaf entries decoded per refill.
	BatchSize int
	// VerifyOrder checks that timestamps never decrease inside a row group
	// and records Unordered errors when they do.
	VerifyOrder bool
	// OnError is called for every recorded ShardError, in scan order.
	OnError func(*ShardError)
	// Log defaults to the process logger.
	Log *logger.Log
}

func (o Options) withDefaults() Options {
	if o.Open == nil {
		o.Open = column.Open
	}
	if o.BatchSize <= 0 {
		o.BatchSize = column.DefaultBatchSize
	}
	if o.Log == nil {
		o.Log = logger.GetLogger()
	}
	return o
}
