package column

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type sliceStream struct {
	entries []Entry
	limit   int
	pos     int
	err     error
}

func (s *sliceStream) Read(buf []Entry) (int, error) {
	if s.err != nil && s.pos >= len(s.entries) {
		return 0, s.err
	}
	n := len(buf)
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}
	n = copy(buf[:n], s.entries[s.pos:])
	s.pos += n
	if s.pos >= len(s.entries) && s.err == nil {
		return n, io.EOF
	}
	return n, nil
}

func list(rows ...[]int64) []Entry {
	var out []Entry
	for _, row := range rows {
		if len(row) == 0 {
			out = append(out, Entry{})
			continue
		}
		for j, v := range row {
			e := Entry{Value: v, Def: 1, Rep: 1, Present: true}
			if j == 0 {
				e.Rep = 0
			}
			out = append(out, e)
		}
	}
	return out
}

func flat(vals ...int64) []Entry {
	out := make([]Entry, len(vals))
	for i, v := range vals {
		out[i] = Entry{Value: v, Present: true}
	}
	return out
}

func TestPeekTake(t *testing.T) {
	c := NewCursor(&sliceStream{entries: flat(1, 2, 3), limit: 1}, 2)

	e, ok := c.Peek()
	require.True(t, ok)
	require.Equal(t, int64(1), e.Value)
	e, ok = c.Peek()
	require.True(t, ok)
	require.Equal(t, int64(1), e.Value, "peek must not consume")

	for _, want := range []int64{1, 2, 3} {
		e, ok = c.Take()
		require.True(t, ok)
		require.Equal(t, want, e.Value)
	}
	_, ok = c.Peek()
	require.False(t, ok)
	_, ok = c.Take()
	require.False(t, ok)
	require.NoError(t, c.Err())
}

func TestAppendRowOffsets(t *testing.T) {
	// Row 0 has two levels, row 1 none, row 2 one.
	for _, batch := range []int{1, 2, 3, DefaultBatchSize} {
		c := NewCursor(&sliceStream{entries: list([]int64{10, 11}, nil, []int64{12})}, batch)
		var vals []int64
		off := []uint32{0}
		for range 3 {
			n, err := c.AppendRow(&vals)
			require.NoError(t, err)
			off = append(off, off[len(off)-1]+n)
		}
		require.Equal(t, []uint32{0, 2, 2, 3}, off, "batch %d", batch)
		require.Equal(t, []int64{10, 11, 12}, vals)

		n, err := c.AppendRow(&vals)
		require.NoError(t, err)
		require.Zero(t, n, "rows past the end are empty")
	}
}

func TestAppendRowRefillMidList(t *testing.T) {
	long := make([]int64, 7)
	for i := range long {
		long[i] = int64(i)
	}
	c := NewCursor(&sliceStream{entries: list(long, []int64{100}, long), limit: 2}, 3)

	var vals []int64
	n, err := c.AppendRow(&vals)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	n, err = c.AppendRow(&vals)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = c.AppendRow(&vals)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Len(t, vals, 15)
	require.Equal(t, int64(100), vals[7])
}

func TestAppendRowNilSinkSameWalk(t *testing.T) {
	entries := list([]int64{1, 2, 3}, nil, []int64{4})
	stored := NewCursor(&sliceStream{entries: entries}, 2)
	skipped := NewCursor(&sliceStream{entries: entries}, 2)

	var vals []int64
	for range 3 {
		a, err := stored.AppendRow(&vals)
		require.NoError(t, err)
		b, err := skipped.AppendRow(nil)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
	_, ok := skipped.Peek()
	require.False(t, ok)
}

func TestAppendRowRejectsContinuationStart(t *testing.T) {
	entries := []Entry{{Value: 1, Def: 1, Rep: 1, Present: true}}
	c := NewCursor(&sliceStream{entries: entries}, 4)
	_, err := c.AppendRow(nil)
	require.ErrorIs(t, err, ErrDesync)
}

func TestAppendRowReadError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCursor(&sliceStream{entries: list([]int64{1, 2}), err: boom}, 4)
	_, err := c.AppendRow(nil)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, c.Err(), boom)
}

func nullHead(vals ...int64) []Entry {
	out := []Entry{{}}
	for _, v := range vals {
		out = append(out, Entry{Value: v, Def: 1, Rep: 1, Present: true})
	}
	return out
}

func TestAppendRowNullFirstElement(t *testing.T) {
	entries := append(nullHead(5, 6), list(nil, []int64{7})...)
	for _, batch := range []int{1, 2, 16} {
		c := NewCursor(&sliceStream{entries: entries, limit: 1}, batch)
		var vals []int64
		var counts []uint32
		for range 3 {
			n, err := c.AppendRow(&vals)
			require.NoError(t, err)
			counts = append(counts, n)
		}
		require.Equal(t, []uint32{2, 0, 1}, counts, "batch %d", batch)
		require.Equal(t, []int64{5, 6, 7}, vals, "batch %d", batch)
	}
}

func TestAppendPairRowNullFirstElement(t *testing.T) {
	px := NewCursor(&sliceStream{entries: append(nullHead(10), list([]int64{11})...)}, 1)
	qty := NewCursor(&sliceStream{entries: append(nullHead(1), list([]int64{2})...)}, 3)

	var pxs, qtys []int64
	for _, want := range []uint32{1, 1} {
		n, err := AppendPairRow(px, qty, &pxs, &qtys)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
	require.Equal(t, []int64{10, 11}, pxs)
	require.Equal(t, []int64{1, 2}, qtys)
}

func TestAppendPairRow(t *testing.T) {
	px := NewCursor(&sliceStream{entries: list([]int64{10, 11}, nil, []int64{12}), limit: 1}, 2)
	qty := NewCursor(&sliceStream{entries: list([]int64{1, 2}, nil, []int64{3})}, 3)

	var pxs, qtys []int64
	var counts []uint32
	for range 3 {
		n, err := AppendPairRow(px, qty, &pxs, &qtys)
		require.NoError(t, err)
		counts = append(counts, n)
	}
	require.Equal(t, []uint32{2, 0, 1}, counts)
	require.Equal(t, []int64{10, 11, 12}, pxs)
	require.Equal(t, []int64{1, 2, 3}, qtys)

	n, err := AppendPairRow(px, qty, &pxs, &qtys)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAppendPairRowDiscardsOneSide(t *testing.T) {
	px := NewCursor(&sliceStream{entries: list([]int64{10, 11})}, 4)
	qty := NewCursor(&sliceStream{entries: list([]int64{1, 2})}, 4)

	var pxs []int64
	n, err := AppendPairRow(px, qty, &pxs, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, []int64{10, 11}, pxs)
}

func TestAppendPairRowDesync(t *testing.T) {
	cases := map[string]struct {
		a, b []Entry
	}{
		"continuation mismatch": {
			a: list([]int64{1, 2}, []int64{3}),
			b: list([]int64{1}, []int64{2, 3}),
		},
		"empty on one side": {
			a: list(nil, []int64{1}),
			b: list([]int64{1}, nil),
		},
		"one side ends early": {
			a: list([]int64{1}, []int64{2}),
			b: list([]int64{1}),
		},
		"continue versus end": {
			a: list([]int64{1, 2}),
			b: list([]int64{1}),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewCursor(&sliceStream{entries: tc.a, limit: 1}, 1)
			b := NewCursor(&sliceStream{entries: tc.b}, 8)
			var err error
			for range 3 {
				if _, err = AppendPairRow(a, b, nil, nil); err != nil {
					break
				}
			}
			require.ErrorIs(t, err, ErrDesync)
		})
	}
}

func TestCursorReset(t *testing.T) {
	c := NewCursor(&sliceStream{entries: flat(1)}, 4)
	c.Take()
	_, ok := c.Peek()
	require.False(t, ok)

	c.Reset(&sliceStream{entries: flat(9)})
	e, ok := c.Take()
	require.True(t, ok)
	require.Equal(t, int64(9), e.Value)
}
