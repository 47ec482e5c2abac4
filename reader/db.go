// Package reader iterates over the rows of daily market-data shards that
// fall inside a time window.
//
// A DB locates shards under a root directory. Each Top, Trades or Depth call
// returns a reader that opens the candidate shards lazily in order and yields
// one batch per non-empty row group. Shards that cannot be opened or decoded
// are skipped with a warning; the problems are kept in Errors.
//
// Batches borrow the reader's buffers and are valid only until the next call
// to Next. A reader is not safe for concurrent use, but independent readers
// may run in parallel.
package reader

import (
	"errors"
	"fmt"
	"strings"

	"tickshard/internal/scanner"
	"tickshard/internal/shard"
	"tickshard/models"
)

var ErrNoSymbol = errors.New("symbol is required")

// Query selects rows of one symbol with Start <= ts < End, in nanoseconds
// since the epoch. An empty Market searches futures and then spot; rows of
// the two markets are not merged into one time order.
type Query struct {
	Symbol string
	Market string
	Start  int64
	End    int64
}

type DB struct {
	root    string
	opts    Options
	locator *shard.Locator
}

// Open returns a DB over the shard tree at root. No files are touched until
// a reader is created.
func Open(root string, opts Options) *DB {
	opts = opts.withDefaults()
	return &DB{
		root:    root,
		opts:    opts,
		locator: shard.NewLocator(root, opts.Debug),
	}
}

func (db *DB) Root() string { return db.root }

// Candidates lists the shards of kind that exist for q.
func (db *DB) Candidates(kind shard.Kind, q Query) ([]shard.Candidate, error) {
	sq, err := db.shardQuery(kind, q)
	if err != nil {
		return nil, err
	}
	return db.locator.Locate(sq), nil
}

// Expected lists every shard path q could touch, present or not.
func (db *DB) Expected(kind shard.Kind, q Query) ([]shard.Candidate, error) {
	sq, err := db.shardQuery(kind, q)
	if err != nil {
		return nil, err
	}
	return db.locator.Expected(sq), nil
}

func (db *DB) shardQuery(kind shard.Kind, q Query) (shard.Query, error) {
	symbol := strings.TrimSpace(q.Symbol)
	if symbol == "" {
		return shard.Query{}, ErrNoSymbol
	}
	markets, err := shard.Markets(q.Market)
	if err != nil {
		return shard.Query{}, err
	}
	return shard.Query{Symbol: symbol, Kind: kind, Markets: markets, Start: q.Start, End: q.End}, nil
}

// Top returns a reader over top-of-book snapshots.
func (db *DB) Top(q Query, sel models.TopSelect) (*TopReader, error) {
	cands, err := db.Candidates(shard.Top, q)
	if err != nil {
		return nil, fmt.Errorf("top reader: %w", err)
	}
	sc := scanner.NewTopScanner(sel, db.opts.BatchSize)
	return &TopReader{engine: newEngine(shard.Top, q, cands, db.opts, sc.Scan), sc: sc}, nil
}

// Trades returns a reader over trades.
func (db *DB) Trades(q Query, sel models.TradeSelect) (*TradeReader, error) {
	cands, err := db.Candidates(shard.Trade, q)
	if err != nil {
		return nil, fmt.Errorf("trade reader: %w", err)
	}
	sc := scanner.NewTradeScanner(sel, db.opts.BatchSize)
	return &TradeReader{engine: newEngine(shard.Trade, q, cands, db.opts, sc.Scan), sc: sc}, nil
}

// Depth returns a reader over order book depth updates.
func (db *DB) Depth(q Query, sel models.DepthSelect) (*DepthReader, error) {
	cands, err := db.Candidates(shard.Depth, q)
	if err != nil {
		return nil, fmt.Errorf("depth reader: %w", err)
	}
	sc := scanner.NewDepthScanner(sel, db.opts.BatchSize)
	return &DepthReader{engine: newEngine(shard.Depth, q, cands, db.opts, sc.Scan), sc: sc}, nil
}

// TopReader yields batches of top-of-book rows.
type TopReader struct {
	*engine
	sc *scanner.TopScanner
}

// Next fills out with the next non-empty batch. It returns false once every
// shard was scanned or the reader was closed; out is then zeroed.
func (r *TopReader) Next(out *models.TopView) bool {
	if !r.advance() {
		*out = models.TopView{}
		return false
	}
	*out = *r.sc.View()
	return true
}

// TradeReader yields batches of trades.
type TradeReader struct {
	*engine
	sc *scanner.TradeScanner
}

func (r *TradeReader) Next(out *models.TradeView) bool {
	if !r.advance() {
		*out = models.TradeView{}
		return false
	}
	*out = *r.sc.View()
	return true
}

// DepthReader yields batches of depth updates.
type DepthReader struct {
	*engine
	sc *scanner.DepthScanner
}

func (r *DepthReader) Next(out *models.DepthView) bool {
	if !r.advance() {
		*out = models.DepthView{}
		return false
	}
	*out = *r.sc.View()
	return true
}
