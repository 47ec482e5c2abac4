package column

import (
	"errors"
	"io"
)

// DefaultBatchSize is the number of entries pulled from a stream per refill.
const DefaultBatchSize = 65536

// ReadInt64 decodes up to rows values of a scalar leaf into out, reusing its
// capacity. scratch is the entry buffer used for each pull; it is allocated
// when empty. If the stream ends early the result is shorter than rows and
// err is nil, so callers must trust len of the result rather than rows.
// Null slots decode as zero.
func ReadInt64(s Stream, rows int, out []int64, scratch []Entry) ([]int64, error) {
	out = out[:0]
	err := pull(s, rows, scratch, func(e Entry) {
		out = append(out, e.Value)
	})
	return out, err
}

// ReadBool is ReadInt64 for BOOLEAN leaves.
func ReadBool(s Stream, rows int, out []bool, scratch []Entry) ([]bool, error) {
	out = out[:0]
	err := pull(s, rows, scratch, func(e Entry) {
		out = append(out, e.Present && e.Value != 0)
	})
	return out, err
}

func pull(s Stream, rows int, scratch []Entry, emit func(Entry)) error {
	if len(scratch) == 0 {
		scratch = make([]Entry, min(max(rows, 1), DefaultBatchSize))
	}
	got := 0
	for got < rows {
		want := min(len(scratch), rows-got)
		n, err := s.Read(scratch[:want])
		for _, e := range scratch[:n] {
			if !e.Present {
				e.Value = 0
			}
			emit(e)
		}
		got += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if n == 0 {
			return io.ErrNoProgress
		}
	}
	return nil
}
