package reader

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"tickshard/internal/metrics"
	"tickshard/internal/prefetch"
	"tickshard/internal/scanner"
	"tickshard/internal/shard"
	"tickshard/logger"
)

// Stats counts what a reader has done so far.
type Stats struct {
	Candidates    int
	ShardsOpened  int64
	ShardsSkipped int64
	RowGroups     int64
	Rows          int64
}

// engine walks the candidate list: open a shard, scan its row groups until a
// non-empty batch appears, close it, move on. Shard-level failures are
// recorded and the walk continues with the next candidate.
type engine struct {
	kind  shard.Kind
	query Query
	opts  Options
	cands []shard.Candidate
	scan  func(*scanner.Shard) (int, error)

	next int
	cur  *scanner.Shard
	done bool

	scanID  string
	started time.Time
	errs    []*ShardError
	stats   Stats
	log     *logger.Entry
}

func newEngine(kind shard.Kind, q Query, cands []shard.Candidate, opts Options, scan func(*scanner.Shard) (int, error)) *engine {
	id := uuid.NewString()
	e := &engine{
		kind:    kind,
		query:   q,
		opts:    opts,
		cands:   cands,
		scan:    scan,
		scanID:  id,
		started: time.Now(),
		log: opts.Log.WithComponent("reader").WithFields(logger.Fields{
			"scan_id": id,
			"kind":    string(kind),
			"symbol":  q.Symbol,
		}),
	}
	e.stats.Candidates = len(cands)
	e.log.WithFields(logger.Fields{"candidates": len(cands)}).Debug("reader created")
	return e
}

// ScanID identifies the reader in logs and metrics.
func (e *engine) ScanID() string { return e.scanID }

// Errors returns every problem recorded so far, in scan order.
func (e *engine) Errors() []*ShardError {
	return append([]*ShardError(nil), e.errs...)
}

func (e *engine) Stats() Stats { return e.stats }

// Close releases the open shard. Later Next calls return false. Close is
// idempotent.
func (e *engine) Close() error {
	err := e.closeShard()
	e.finish()
	return err
}

// advance moves to the next non-empty batch and reports whether one is
// ready in the scanner's view.
func (e *engine) advance() bool {
	for !e.done {
		if e.cur == nil && !e.openNext() {
			e.finish()
			return false
		}

		n, err := e.scan(e.cur)
		for _, w := range e.cur.Warnings() {
			e.record(shardError(e.cur.Path, w))
		}
		if errors.Is(err, io.EOF) {
			e.closeShard()
			continue
		}
		if err != nil {
			se := shardError(e.cur.Path, err)
			e.record(se)
			e.skip(se.Kind)
			e.closeShard()
			continue
		}

		e.stats.RowGroups++
		metrics.RowGroupScanned(string(e.kind))
		if n == 0 {
			continue
		}
		e.stats.Rows += int64(n)
		metrics.RowsEmitted(string(e.kind), n)
		return true
	}
	return false
}

// openNext opens the next candidate that can be opened. It returns false
// when the list is exhausted.
func (e *engine) openNext() bool {
	for e.next < len(e.cands) {
		c := e.cands[e.next]
		e.next++

		if e.opts.Prefetch && e.next < len(e.cands) {
			if err := prefetch.Hint(e.cands[e.next].Path); err != nil {
				e.log.WithError(err).WithFields(logger.Fields{"path": e.cands[e.next].Path}).Debug("prefetch hint failed")
			}
		}

		f, err := e.opts.Open(c.Path)
		if err != nil {
			e.record(&ShardError{Kind: ShardUnavailable, Path: c.Path, RowGroup: -1, Row: -1, Err: err})
			e.skip(ShardUnavailable)
			continue
		}
		e.stats.ShardsOpened++
		metrics.ShardOpened(string(e.kind))
		e.cur = scanner.NewShard(c.Path, f, e.query.Start, e.query.End, e.opts.VerifyOrder)
		if e.opts.Debug {
			e.log.WithFields(logger.Fields{"path": c.Path, "row_groups": f.NumRowGroups()}).Debug("opened shard")
		}
		return true
	}
	return false
}

func (e *engine) closeShard() error {
	if e.cur == nil {
		return nil
	}
	err := e.cur.File.Close()
	e.cur = nil
	return err
}

func (e *engine) skip(kind ErrorKind) {
	e.stats.ShardsSkipped++
	metrics.ShardSkipped(string(e.kind), kind.String())
}

func (e *engine) record(se *ShardError) {
	e.errs = append(e.errs, se)
	e.log.WithError(se.Err).WithFields(logger.Fields{
		"path":       se.Path,
		"row_group":  se.RowGroup,
		"row":        se.Row,
		"error_kind": se.Kind.String(),
		"fatal":      se.Kind.Fatal(),
	}).Warn("shard problem; continuing")
	if e.opts.OnError != nil {
		e.opts.OnError(se)
	}
}

func (e *engine) finish() {
	if e.done {
		return
	}
	e.done = true
	elapsed := time.Since(e.started)
	metrics.ReportScan(e.opts.Log, metrics.ScanSummary{
		ScanID:        e.scanID,
		Kind:          string(e.kind),
		Symbol:        e.query.Symbol,
		ShardsOpened:  e.stats.ShardsOpened,
		ShardsSkipped: e.stats.ShardsSkipped,
		RowGroups:     e.stats.RowGroups,
		Rows:          e.stats.Rows,
		Errors:        int64(len(e.errs)),
		Duration:      elapsed,
	})
	logger.LogPerformanceEntry(e.log, "reader", "scan", elapsed, logger.Fields{
		"shards_opened":  e.stats.ShardsOpened,
		"shards_skipped": e.stats.ShardsSkipped,
		"row_groups":     e.stats.RowGroups,
		"rows":           e.stats.Rows,
		"errors":         len(e.errs),
	})
}
