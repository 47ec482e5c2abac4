// Package shard maps a symbol, record kind, market and time window to the
// daily parquet files that hold it.
package shard

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tickshard/logger"
)

// Market is the venue segment a shard belongs to.
type Market string

const (
	Fut  Market = "fut"
	Spot Market = "spot"
)

// Kind is the record kind stored in a shard.
type Kind string

const (
	Top   Kind = "top"
	Trade Kind = "trade"
	Depth Kind = "depth"
)

var (
	ErrInvalidMarket = errors.New("invalid market")
	ErrInvalidKind   = errors.New("invalid record kind")
)

// DayNanos is the length of one UTC day in nanoseconds.
const DayNanos int64 = 24 * int64(time.Hour)

// ParseMarket normalises a market name. The empty string is not a market;
// use Markets to expand it.
func ParseMarket(s string) (Market, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot":
		return Spot, nil
	case "fut", "future", "futures":
		return Fut, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMarket, s)
}

// Markets expands a market argument into the search order. An empty value
// means both markets, futures first.
func Markets(s string) ([]Market, error) {
	if strings.TrimSpace(s) == "" {
		return []Market{Fut, Spot}, nil
	}
	m, err := ParseMarket(s)
	if err != nil {
		return nil, err
	}
	return []Market{m}, nil
}

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Top:
		return Top, nil
	case Trade:
		return Trade, nil
	case Depth:
		return Depth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Query selects shards of one kind for one symbol over [Start, End), in
// nanoseconds since the epoch.
type Query struct {
	Symbol  string
	Kind    Kind
	Markets []Market
	Start   int64
	End     int64
}

// Candidate is one shard file covering [DayStart, DayEnd).
type Candidate struct {
	Path     string
	Rel      string
	Symbol   string
	Market   Market
	Kind     Kind
	DayStart int64
	DayEnd   int64
}

// Locator resolves queries against a shard tree rooted at Root.
type Locator struct {
	Root  string
	Debug bool

	log  *logger.Entry
	stat func(string) (os.FileInfo, error)
}

func NewLocator(root string, debug bool) *Locator {
	return &Locator{
		Root:  root,
		Debug: debug,
		log:   logger.GetLogger().WithComponent("shard_locator"),
		stat:  os.Stat,
	}
}

// RelPath is the canonical path of a shard relative to the root, using
// forward slashes. Month and day are not zero padded.
func RelPath(kind Kind, market Market, symbol string, day time.Time) string {
	day = day.UTC()
	y, m, d := day.Year(), int(day.Month()), day.Day()
	file := fmt.Sprintf("bn_%s_%s_%s_%d_%d_%d.parquet", kind, market, symbol, y, m, d)
	return fmt.Sprintf("%s_%s/%s/%d/%d/%s", kind, market, symbol, y, m, file)
}

// Path is RelPath joined onto the locator root.
func (l *Locator) Path(kind Kind, market Market, symbol string, day time.Time) string {
	return filepath.Join(l.Root, filepath.FromSlash(RelPath(kind, market, symbol, day)))
}

// Expected lists every canonical shard the query could touch without
// checking the filesystem: days ascending within each market, markets in
// query order.
func (l *Locator) Expected(q Query) []Candidate {
	if q.Start >= q.End {
		return nil
	}
	markets := q.Markets
	if len(markets) == 0 {
		markets = []Market{Fut, Spot}
	}

	first := FloorDay(q.Start) / DayNanos
	last := FloorDay(q.End-1) / DayNanos

	out := make([]Candidate, 0, len(markets)*int(last-first+1))
	for _, m := range markets {
		for d := first; d <= last; d++ {
			day := d * DayNanos
			t := time.Unix(0, day).UTC()
			rel := RelPath(q.Kind, m, q.Symbol, t)
			out = append(out, Candidate{
				Path:     filepath.Join(l.Root, filepath.FromSlash(rel)),
				Rel:      rel,
				Symbol:   q.Symbol,
				Market:   m,
				Kind:     q.Kind,
				DayStart: day,
				DayEnd:   dayEnd(day),
			})
		}
	}
	return out
}

// Locate returns the expected candidates that exist on disk. Missing days
// are skipped silently. Results are market-major, so with both markets the
// stream is not globally time ordered; callers merge if they need that.
func (l *Locator) Locate(q Query) []Candidate {
	expected := l.Expected(q)
	out := expected[:0]
	for _, c := range expected {
		info, err := l.stat(c.Path)
		ok := err == nil && info.Mode().IsRegular()
		if l.Debug {
			l.log.WithFields(logger.Fields{
				"path":      c.Path,
				"market":    c.Market,
				"day_start": isoDay(c.DayStart),
				"day_end":   isoDay(c.DayEnd),
				"exists":    ok,
			}).Debug("probe shard")
		}
		if ok {
			out = append(out, c)
		}
	}
	if l.Debug {
		paths := make([]string, len(out))
		for i, c := range out {
			paths[i] = c.Path
		}
		l.log.WithFields(logger.Fields{
			"symbol":     q.Symbol,
			"kind":       q.Kind,
			"start":      isoTime(q.Start),
			"end":        isoTime(q.End),
			"candidates": paths,
		}).Info("shard discovery complete")
	}
	return out
}

// minDay and maxDay are the first and last UTC day starts representable
// as int64 nanoseconds.
const (
	minDay = math.MinInt64 / DayNanos * DayNanos
	maxDay = math.MaxInt64 / DayNanos * DayNanos
)

// FloorDay rounds ns down to the start of its UTC day. Instants before
// the first representable day start map to that day.
func FloorDay(ns int64) int64 {
	if ns < minDay {
		return minDay
	}
	d := ns / DayNanos
	if ns%DayNanos < 0 {
		d--
	}
	return d * DayNanos
}

// dayEnd is day+DayNanos, saturated for the last representable day.
func dayEnd(day int64) int64 {
	if day >= maxDay {
		return math.MaxInt64
	}
	return day + DayNanos
}

func isoDay(ns int64) string {
	return time.Unix(0, ns).UTC().Format("2006-01-02")
}

func isoTime(ns int64) string {
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}
