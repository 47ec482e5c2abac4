// Package scanner turns one row group of an open shard into a compact batch
// of the rows whose timestamp falls inside the query window.
package scanner

import (
	"errors"
	"fmt"

	"tickshard/internal/column"
)

var (
	// ErrShortRead marks a row group whose columns decoded fewer values than
	// the row group declares. The batch is truncated to the shortest column.
	ErrShortRead = errors.New("short read")
	// ErrUnordered marks a row group whose timestamps decrease.
	ErrUnordered = errors.New("timestamps out of order")
)

// Error locates a scan problem inside a shard. Row is -1 when the problem
// is not tied to one row.
type Error struct {
	RowGroup int
	Row      int
	Column   string
	Err      error
}

func (e *Error) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row group %d row %d column %s: %v", e.RowGroup, e.Row, e.Column, e.Err)
	}
	if e.Column != "" {
		return fmt.Sprintf("row group %d column %s: %v", e.RowGroup, e.Column, e.Err)
	}
	return fmt.Sprintf("row group %d: %v", e.RowGroup, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Shard is the scan position inside one open file. The row-group index only
// moves forward.
type Shard struct {
	Path        string
	File        column.File
	Start       int64
	End         int64
	VerifyOrder bool

	next     int
	warnings []*Error
}

func NewShard(path string, f column.File, start, end int64, verifyOrder bool) *Shard {
	return &Shard{Path: path, File: f, Start: start, End: end, VerifyOrder: verifyOrder}
}

// RowGroup is the index of the next row group to scan.
func (sh *Shard) RowGroup() int { return sh.next }

// Done reports whether every row group was scanned.
func (sh *Shard) Done() bool { return sh.next >= sh.File.NumRowGroups() }

// Warnings returns and clears the non-fatal problems recorded by scans.
func (sh *Shard) Warnings() []*Error {
	w := sh.warnings
	sh.warnings = nil
	return w
}

func (sh *Shard) warn(e *Error) {
	sh.warnings = append(sh.warnings, e)
}

func (sh *Shard) advance() (column.RowGroup, int, bool) {
	if sh.Done() {
		return nil, 0, false
	}
	i := sh.next
	sh.next++
	return sh.File.RowGroup(i), i, true
}
