package shardtest

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// Level is one written order book level.
type Level struct {
	Px  int64 `parquet:"px"`
	Qty int64 `parquet:"qty"`
}

// DepthRow uses the standard three-level LIST layout, so the level leaves are
// ask.list.element.px and so on.
type DepthRow struct {
	Ts        int64   `parquet:"ts"`
	FirstID   int64   `parquet:"firstId"`
	LastID    int64   `parquet:"lastId"`
	EventTime int64   `parquet:"eventTime"`
	Ask       []Level `parquet:"ask,list"`
	Bid       []Level `parquet:"bid,list"`
}

// AskOnlyRow is a depth shard that lost its bid column.
type AskOnlyRow struct {
	Ts  int64   `parquet:"ts"`
	Ask []Level `parquet:"ask,list"`
}

// WriteDepth writes one row group per group.
func WriteDepth(path string, groups ...[]DepthRow) error {
	return writeNested(path, groups)
}

func WriteAskOnly(path string, groups ...[]AskOnlyRow) error {
	return writeNested(path, groups)
}

func writeNested[T any](path string, groups [][]T) error {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf, parquet.Compression(&parquet.Snappy))
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		if _, err := w.Write(g); err != nil {
			return fmt.Errorf("write row group %d: %w", i, err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush row group %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return WriteFile(path, buf.Bytes())
}
