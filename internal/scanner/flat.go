package scanner

import (
	"fmt"

	"tickshard/internal/column"
)

type flatColumn interface {
	path() string
	decode(s column.Stream, rows int, scratch []column.Entry) (int, error)
	compact(idx []int32)
}

type int64Column struct {
	name string
	out  *[]int64
	full []int64
}

func (c *int64Column) path() string { return c.name }

func (c *int64Column) decode(s column.Stream, rows int, scratch []column.Entry) (int, error) {
	var err error
	c.full, err = column.ReadInt64(s, rows, c.full, scratch)
	return len(c.full), err
}

func (c *int64Column) compact(idx []int32) {
	dst := (*c.out)[:0]
	for _, i := range idx {
		dst = append(dst, c.full[i])
	}
	*c.out = dst
}

type boolColumn struct {
	name string
	out  *[]bool
	full []bool
}

func (c *boolColumn) path() string { return c.name }

func (c *boolColumn) decode(s column.Stream, rows int, scratch []column.Entry) (int, error) {
	var err error
	c.full, err = column.ReadBool(s, rows, c.full, scratch)
	return len(c.full), err
}

func (c *boolColumn) compact(idx []int32) {
	dst := (*c.out)[:0]
	for _, i := range idx {
		dst = append(dst, c.full[i])
	}
	*c.out = dst
}

// flatSet decodes the timestamp and the selected scalar columns of a row
// group and keeps the indexes of the in-window rows.
type flatSet struct {
	scratch []column.Entry
	ts      int64Column
	cols    []flatColumn
	idx     []int32
	rows    int
}

func newFlatSet(batchSize int, tsOut *[]int64) flatSet {
	if batchSize <= 0 {
		batchSize = column.DefaultBatchSize
	}
	fs := flatSet{scratch: make([]column.Entry, batchSize)}
	fs.ts.name = "ts"
	fs.ts.out = tsOut
	return fs
}

func (fs *flatSet) addInt64(path string, out *[]int64) {
	fs.cols = append(fs.cols, &int64Column{name: path, out: out})
}

func (fs *flatSet) addBool(path string, out *[]bool) {
	fs.cols = append(fs.cols, &boolColumn{name: path, out: out})
}

// load decodes every column of rg and computes the in-window row indexes.
// fs.rows is the number of rows every decoded column agrees on.
func (fs *flatSet) load(sh *Shard, rg column.RowGroup, group int) error {
	declared := int(rg.NumRows())
	rows, err := fs.decode(&fs.ts, rg, declared, group)
	if err != nil {
		return err
	}
	short := ""
	if rows < declared {
		short = fs.ts.name
	}
	for _, c := range fs.cols {
		n, err := fs.decode(c, rg, declared, group)
		if err != nil {
			return err
		}
		if n < rows {
			rows = n
			short = c.path()
		}
	}
	fs.rows = rows

	if short != "" {
		sh.warn(&Error{
			RowGroup: group,
			Row:      -1,
			Column:   short,
			Err:      fmt.Errorf("%w: %d of %d rows", ErrShortRead, rows, declared),
		})
	}

	ts := fs.ts.full[:rows]
	if sh.VerifyOrder {
		for i := 1; i < len(ts); i++ {
			if ts[i] < ts[i-1] {
				sh.warn(&Error{RowGroup: group, Row: i, Column: "ts", Err: ErrUnordered})
				break
			}
		}
	}

	fs.idx = fs.idx[:0]
	for i, t := range ts {
		if t >= sh.Start && t < sh.End {
			fs.idx = append(fs.idx, int32(i))
		}
	}
	return nil
}

func (fs *flatSet) decode(c flatColumn, rg column.RowGroup, rows, group int) (int, error) {
	s, err := rg.Column(c.path())
	if err != nil {
		return 0, &Error{RowGroup: group, Row: -1, Column: c.path(), Err: err}
	}
	defer column.CloseStream(s)
	n, err := c.decode(s, rows, fs.scratch)
	if err != nil {
		return 0, &Error{RowGroup: group, Row: -1, Column: c.path(), Err: err}
	}
	return n, nil
}

// compact copies the in-window rows of every column into its output. The
// timestamp is only copied when the caller exposes it.
func (fs *flatSet) compact() {
	if fs.ts.out != nil {
		fs.ts.compact(fs.idx)
	}
	for _, c := range fs.cols {
		c.compact(fs.idx)
	}
}
