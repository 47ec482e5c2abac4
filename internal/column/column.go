// Package column reads individual leaf columns of a shard one row group at a
// time. The File, RowGroup and Stream interfaces hide the parquet library;
// everything above this package decodes through them.
package column

import (
	"errors"
	"io"
)

var (
	// ErrMissingColumn is returned when a requested leaf is not in the schema.
	ErrMissingColumn = errors.New("column not found")
	// ErrColumnType is returned when a leaf has an unsupported physical type.
	ErrColumnType = errors.New("unsupported column type")
	// ErrDesync reports list leaves whose level streams disagree on the row
	// layout. It means the shard is corrupt or the schema drifted.
	ErrDesync = errors.New("list cursors out of sync")
)

// Entry is one physical slot of a leaf column stream.
//
// Rep is the repetition level: zero starts a new row. Present is set when the
// definition level reaches the leaf's maximum, meaning Value holds data. For
// a list leaf an entry with Rep == 0 and !Present is a row whose list is
// empty or null. Boolean leaves carry 0 or 1 in Value.
type Entry struct {
	Value   int64
	Def     int16
	Rep     int16
	Present bool
}

// StartsRow reports whether e begins a new row.
func (e Entry) StartsRow() bool { return e.Rep == 0 }

// Stream yields the entries of one leaf in one row group, in file order.
// Read fills buf and returns the number of entries written. It returns
// io.EOF, possibly together with a final batch, once the leaf is exhausted.
type Stream interface {
	Read(buf []Entry) (int, error)
}

// RowGroup gives access to the leaves of one row group.
type RowGroup interface {
	NumRows() int64
	// Has reports whether the leaf at the dotted path exists.
	Has(path string) bool
	// Column opens the leaf at the dotted path, for example "ts" or
	// "ask.list.element.px". It fails with ErrMissingColumn or ErrColumnType.
	Column(path string) (Stream, error)
}

// File is an open shard.
type File interface {
	io.Closer
	NumRowGroups() int
	RowGroup(i int) RowGroup
}

// Opener opens the shard at path.
type Opener func(path string) (File, error)
