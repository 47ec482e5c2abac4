package reader

import (
	"errors"
	"fmt"

	"tickshard/internal/column"
	"tickshard/internal/scanner"
)

// ErrorKind classifies a problem met while scanning one shard.
type ErrorKind int

const (
	// ShardUnavailable: the file could not be opened. The shard is skipped.
	ShardUnavailable ErrorKind = iota + 1
	// ShortRead: a column decoded fewer values than its row group declares.
	// The row group is truncated and the scan continues inside the shard.
	ShortRead
	// SchemaMismatch: a selected column is missing or has the wrong type.
	// The rest of the shard is skipped.
	SchemaMismatch
	// CursorDesync: list leaves disagree on the row layout. The rest of the
	// shard is skipped.
	CursorDesync
	// DecodeFailed: the parquet data could not be decoded. The rest of the
	// shard is skipped.
	DecodeFailed
	// Unordered: timestamps decrease inside a row group. Only reported when
	// Options.VerifyOrder is set; the rows are still returned.
	Unordered
)

func (k ErrorKind) String() string {
	switch k {
	case ShardUnavailable:
		return "shard_unavailable"
	case ShortRead:
		return "short_read"
	case SchemaMismatch:
		return "schema_mismatch"
	case CursorDesync:
		return "cursor_desync"
	case DecodeFailed:
		return "decode_failed"
	case Unordered:
		return "unordered"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// Fatal reports whether errors of this kind end the scan of their shard.
func (k ErrorKind) Fatal() bool {
	switch k {
	case ShortRead, Unordered:
		return false
	default:
		return true
	}
}

// ShardError is one problem recorded by a reader. RowGroup and Row are -1
// when unknown.
type ShardError struct {
	Kind     ErrorKind
	Path     string
	RowGroup int
	Row      int
	Err      error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("%s: %s (row group %d, row %d): %v", e.Kind, e.Path, e.RowGroup, e.Row, e.Err)
}

func (e *ShardError) Unwrap() error { return e.Err }

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, column.ErrMissingColumn), errors.Is(err, column.ErrColumnType):
		return SchemaMismatch
	case errors.Is(err, column.ErrDesync):
		return CursorDesync
	case errors.Is(err, scanner.ErrShortRead):
		return ShortRead
	case errors.Is(err, scanner.ErrUnordered):
		return Unordered
	default:
		return DecodeFailed
	}
}

func shardError(path string, err error) *ShardError {
	se := &ShardError{Kind: classify(err), Path: path, RowGroup: -1, Row: -1, Err: err}
	var scanErr *scanner.Error
	if errors.As(err, &scanErr) {
		se.RowGroup = scanErr.RowGroup
		se.Row = scanErr.Row
	}
	return se
}
