package shardtest

import (
	"fmt"
	"io"
	"sync"

	"tickshard/internal/column"
)

// MemFile is an in-memory column.File. Leaf streams are built from explicit
// entries, which lets tests describe corrupt level layouts a real writer
// would never produce.
type MemFile struct {
	Groups []MemGroup

	mu     sync.Mutex
	closed bool
}

// MemGroup is one row group. Columns maps dotted leaf paths to entries and
// Invalid marks leaves reported with an unsupported physical type.
type MemGroup struct {
	Rows    int64
	Columns map[string][]column.Entry
	Invalid map[string]bool
	// ReadLimit caps the entries returned per Read, to force refills.
	ReadLimit int
	// FailAfter makes every stream of the group fail with Err once this many
	// entries were returned. Zero disables it.
	FailAfter int
	Err       error
}

func (f *MemFile) NumRowGroups() int { return len(f.Groups) }

func (f *MemFile) RowGroup(i int) column.RowGroup { return &f.Groups[i] }

func (f *MemFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *MemFile) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (g *MemGroup) NumRows() int64 { return g.Rows }

func (g *MemGroup) Has(path string) bool {
	_, ok := g.Columns[path]
	return ok
}

func (g *MemGroup) Column(path string) (column.Stream, error) {
	if g.Invalid[path] {
		return nil, fmt.Errorf("%w: %s", column.ErrColumnType, path)
	}
	entries, ok := g.Columns[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", column.ErrMissingColumn, path)
	}
	return &MemStream{Entries: entries, Limit: g.ReadLimit, FailAfter: g.FailAfter, Err: g.Err}, nil
}

// MemStream replays a fixed entry slice.
type MemStream struct {
	Entries   []column.Entry
	Limit     int
	FailAfter int
	Err       error

	pos int
}

func (s *MemStream) Read(buf []column.Entry) (int, error) {
	if s.FailAfter > 0 && s.pos >= s.FailAfter {
		return 0, s.Err
	}
	n := len(buf)
	if s.Limit > 0 && n > s.Limit {
		n = s.Limit
	}
	if s.FailAfter > 0 && s.pos+n > s.FailAfter {
		n = s.FailAfter - s.pos
	}
	n = copy(buf[:n], s.Entries[s.pos:])
	s.pos += n
	if s.pos >= len(s.Entries) {
		return n, io.EOF
	}
	return n, nil
}

// Flat encodes required scalar values.
func Flat(vals ...int64) []column.Entry {
	out := make([]column.Entry, len(vals))
	for i, v := range vals {
		out[i] = column.Entry{Value: v, Def: 0, Rep: 0, Present: true}
	}
	return out
}

// Bools encodes a required BOOLEAN leaf.
func Bools(vals ...bool) []column.Entry {
	out := make([]column.Entry, len(vals))
	for i, v := range vals {
		out[i] = column.Entry{Present: true}
		if v {
			out[i].Value = 1
		}
	}
	return out
}

// List encodes one leaf of a required list of required elements, one slice
// per row. An empty row becomes a single entry with no value.
func List(rows ...[]int64) []column.Entry {
	var out []column.Entry
	for _, row := range rows {
		if len(row) == 0 {
			out = append(out, column.Entry{Def: 0, Rep: 0})
			continue
		}
		for j, v := range row {
			rep := int16(1)
			if j == 0 {
				rep = 0
			}
			out = append(out, column.Entry{Value: v, Def: 1, Rep: rep, Present: true})
		}
	}
	return out
}
