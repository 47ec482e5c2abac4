package column

import (
	"errors"
	"fmt"
	"io"
)

// Cursor pulls entries of one list leaf through a fixed batch buffer and
// rebuilds rows from their repetition levels. Its position is the only state
// it keeps, so a refill in the middle of a list is invisible to callers.
type Cursor struct {
	s   Stream
	buf []Entry
	pos int
	n   int
	eof bool
	err error
}

// NewCursor wraps s with a buffer of batchSize entries (DefaultBatchSize
// when batchSize <= 0).
func NewCursor(s Stream, batchSize int) *Cursor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Cursor{s: s, buf: make([]Entry, batchSize)}
}

// Reset points the cursor at a new stream, keeping its buffer.
func (c *Cursor) Reset(s Stream) {
	c.s = s
	c.pos, c.n = 0, 0
	c.eof = false
	c.err = nil
}

// Err returns the first read error other than end of stream.
func (c *Cursor) Err() error { return c.err }

// Peek returns the next entry without consuming it. It reports false at end
// of stream or after a read error.
func (c *Cursor) Peek() (Entry, bool) {
	for c.pos >= c.n {
		if c.eof || c.err != nil {
			return Entry{}, false
		}
		n, err := c.s.Read(c.buf)
		c.pos, c.n = 0, n
		switch {
		case errors.Is(err, io.EOF):
			c.eof = true
		case err != nil:
			c.err = err
			c.n = 0
		case n == 0:
			c.err = io.ErrNoProgress
		}
	}
	return c.buf[c.pos], true
}

// Take consumes the pending entry, fetching one first if nothing is pending.
func (c *Cursor) Take() (Entry, bool) {
	e, ok := c.Peek()
	if ok {
		c.pos++
	}
	return e, ok
}

// AppendRow consumes the entries of one row and appends its present values
// to sink, returning the element count. A nil sink walks the row without
// storing it. At end of stream the row has zero elements. Absent entries
// are never stored: a row made of a single absent entry is an empty list,
// and an absent first entry followed by continuations is a list whose
// leading null element is dropped.
func (c *Cursor) AppendRow(sink *[]int64) (uint32, error) {
	e, ok := c.Peek()
	if !ok {
		return 0, c.err
	}
	if !e.StartsRow() {
		return 0, fmt.Errorf("%w: row begins at repetition level %d", ErrDesync, e.Rep)
	}
	var count uint32
	for {
		e, _ = c.Take()
		if e.Present {
			if sink != nil {
				*sink = append(*sink, e.Value)
			}
			count++
		}
		next, ok := c.Peek()
		if !ok || next.StartsRow() {
			break
		}
	}
	return count, c.err
}

// AppendPairRow walks one row of two leaves of the same list, such as the
// price and quantity of order book levels, in lock step. Both leaves must
// agree on every structural decision; any disagreement is ErrDesync.
// Either sink may be nil.
func AppendPairRow(a, b *Cursor, aSink, bSink *[]int64) (uint32, error) {
	ea, okA := a.Peek()
	eb, okB := b.Peek()
	if err := pairErr(a, b); err != nil {
		return 0, err
	}
	if okA != okB {
		return 0, fmt.Errorf("%w: one leaf ended before the other", ErrDesync)
	}
	if !okA {
		return 0, nil
	}
	if !ea.StartsRow() || !eb.StartsRow() {
		return 0, fmt.Errorf("%w: row begins at repetition levels %d/%d", ErrDesync, ea.Rep, eb.Rep)
	}
	if ea.Present != eb.Present {
		return 0, fmt.Errorf("%w: empty list on one leaf only", ErrDesync)
	}
	var count uint32
	for {
		ea, _ = a.Take()
		eb, _ = b.Take()
		if ea.Present != eb.Present {
			return count, fmt.Errorf("%w: null element on one leaf only", ErrDesync)
		}
		if ea.Present {
			if aSink != nil {
				*aSink = append(*aSink, ea.Value)
			}
			if bSink != nil {
				*bSink = append(*bSink, eb.Value)
			}
			count++
		}

		na, okA := a.Peek()
		nb, okB := b.Peek()
		if err := pairErr(a, b); err != nil {
			return count, err
		}
		contA := okA && !na.StartsRow()
		contB := okB && !nb.StartsRow()
		if contA != contB {
			return count, fmt.Errorf("%w: list continues on one leaf only", ErrDesync)
		}
		if okA != okB {
			return count, fmt.Errorf("%w: one leaf ended before the other", ErrDesync)
		}
		if !contA {
			return count, nil
		}
	}
}

func pairErr(a, b *Cursor) error {
	if a.err != nil {
		return a.err
	}
	return b.err
}
