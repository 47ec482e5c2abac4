// Package shardtest writes small shard files and in-memory shards for tests.
package shardtest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type TopRow struct {
	Ts     int64 `parquet:"name=ts, type=INT64"`
	AskPx  int64 `parquet:"name=ask_px, type=INT64"`
	AskQty int64 `parquet:"name=ask_qty, type=INT64"`
	BidPx  int64 `parquet:"name=bid_px, type=INT64"`
	BidQty int64 `parquet:"name=bid_qty, type=INT64"`
	Valu   int64 `parquet:"name=valu, type=INT64"`
}

type SampledTopRow struct {
	Ts       int64 `parquet:"name=ts, type=INT64"`
	AskPx    int64 `parquet:"name=ask_px, type=INT64"`
	AskQty   int64 `parquet:"name=ask_qty, type=INT64"`
	BidPx    int64 `parquet:"name=bid_px, type=INT64"`
	BidQty   int64 `parquet:"name=bid_qty, type=INT64"`
	Valu     int64 `parquet:"name=valu, type=INT64"`
	MinBidPx int64 `parquet:"name=min_bid_px, type=INT64"`
	MaxBidPx int64 `parquet:"name=max_bid_px, type=INT64"`
	MinAskPx int64 `parquet:"name=min_ask_px, type=INT64"`
	MaxAskPx int64 `parquet:"name=max_ask_px, type=INT64"`
	MinBidTs int64 `parquet:"name=min_bid_ts, type=INT64"`
	MaxBidTs int64 `parquet:"name=max_bid_ts, type=INT64"`
	MinAskTs int64 `parquet:"name=min_ask_ts, type=INT64"`
	MaxAskTs int64 `parquet:"name=max_ask_ts, type=INT64"`
}

type TradeRow struct {
	Ts            int64 `parquet:"name=ts, type=INT64"`
	Px            int64 `parquet:"name=px, type=INT64"`
	Qty           int64 `parquet:"name=qty, type=INT64"`
	TradeID       int64 `parquet:"name=tradeId, type=INT64"`
	BuyerOrderID  int64 `parquet:"name=buyerOrderId, type=INT64"`
	SellerOrderID int64 `parquet:"name=sellerOrderId, type=INT64"`
	TradeTime     int64 `parquet:"name=tradeTime, type=INT64"`
	IsMarket      bool  `parquet:"name=isMarket, type=BOOLEAN"`
	EventTime     int64 `parquet:"name=eventTime, type=INT64"`
}

// WriteTop writes one row group per group.
func WriteTop(path string, groups ...[]TopRow) error {
	return writeFlat(path, new(TopRow), anyGroups(groups))
}

func WriteSampledTop(path string, groups ...[]SampledTopRow) error {
	return writeFlat(path, new(SampledTopRow), anyGroups(groups))
}

func WriteTrades(path string, groups ...[]TradeRow) error {
	return writeFlat(path, new(TradeRow), anyGroups(groups))
}

func anyGroups[T any](groups [][]T) [][]any {
	out := make([][]any, len(groups))
	for i, g := range groups {
		out[i] = make([]any, len(g))
		for j := range g {
			out[i][j] = g[j]
		}
	}
	return out
}

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }

func writeFlat(path string, schema any, groups [][]any) error {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, schema, 1)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		for _, rec := range g {
			if err := pw.Write(rec); err != nil {
				pw.WriteStop()
				return fmt.Errorf("write record: %w", err)
			}
		}
		if i < len(groups)-1 {
			if err := pw.Flush(true); err != nil {
				pw.WriteStop()
				return fmt.Errorf("flush row group %d: %w", i, err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return WriteFile(path, mem.buffer.Bytes())
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
