package column

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Open is the Opener backed by parquet-go. Bloom filters and page indexes are
// never consulted, so they are not loaded.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size(),
		parquet.SkipBloomFilters(true),
		parquet.SkipPageIndex(true),
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	return &parquetFile{f: f, pf: pf, groups: pf.RowGroups()}, nil
}

type parquetFile struct {
	f      *os.File
	pf     *parquet.File
	groups []parquet.RowGroup
}

func (p *parquetFile) NumRowGroups() int { return len(p.groups) }

func (p *parquetFile) RowGroup(i int) RowGroup {
	return &parquetRowGroup{rg: p.groups[i]}
}

func (p *parquetFile) Close() error {
	p.groups = nil
	return p.f.Close()
}

type parquetRowGroup struct {
	rg parquet.RowGroup
}

func (g *parquetRowGroup) NumRows() int64 { return g.rg.NumRows() }

func (g *parquetRowGroup) Has(path string) bool {
	_, ok := g.rg.Schema().Lookup(strings.Split(path, ".")...)
	return ok
}

func (g *parquetRowGroup) Column(path string) (Stream, error) {
	leaf, ok := g.rg.Schema().Lookup(strings.Split(path, ".")...)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, path)
	}
	kind := leaf.Node.Type().Kind()
	if kind != parquet.Int64 && kind != parquet.Boolean {
		return nil, fmt.Errorf("%w: %s is %s", ErrColumnType, path, kind)
	}
	chunks := g.rg.ColumnChunks()
	if leaf.ColumnIndex < 0 || leaf.ColumnIndex >= len(chunks) {
		return nil, fmt.Errorf("%w: %s has no column chunk", ErrMissingColumn, path)
	}
	return &pageStream{
		chunk:   chunks[leaf.ColumnIndex],
		maxDef:  leaf.MaxDefinitionLevel,
		boolean: kind == parquet.Boolean,
	}, nil
}

// pageStream walks the pages of one column chunk and converts each value to
// an Entry carrying its levels.
type pageStream struct {
	chunk   parquet.ColumnChunk
	pages   parquet.Pages
	page    parquet.Page
	values  parquet.ValueReader
	vbuf    []parquet.Value
	maxDef  int
	boolean bool
	done    bool
}

func (s *pageStream) Read(buf []Entry) (int, error) {
	if s.done {
		return 0, io.EOF
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if s.pages == nil {
		s.pages = s.chunk.Pages()
	}
	if cap(s.vbuf) < len(buf) {
		s.vbuf = make([]parquet.Value, len(buf))
	}
	vals := s.vbuf[:len(buf)]

	for {
		if s.values == nil {
			page, err := s.pages.ReadPage()
			if err != nil {
				s.Close()
				if errors.Is(err, io.EOF) {
					return 0, io.EOF
				}
				return 0, err
			}
			s.page = page
			s.values = page.Values()
		}

		n, err := s.values.ReadValues(vals)
		for i, v := range vals[:n] {
			buf[i] = s.entry(v)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.Close()
				return n, err
			}
			s.releasePage()
		}
		if n > 0 {
			return n, nil
		}
	}
}

func (s *pageStream) entry(v parquet.Value) Entry {
	e := Entry{
		Def:     int16(v.DefinitionLevel()),
		Rep:     int16(v.RepetitionLevel()),
		Present: v.DefinitionLevel() == s.maxDef && !v.IsNull(),
	}
	if e.Present {
		if s.boolean {
			if v.Boolean() {
				e.Value = 1
			}
		} else {
			e.Value = v.Int64()
		}
	}
	return e
}

func (s *pageStream) releasePage() {
	if s.page != nil {
		parquet.Release(s.page)
		s.page = nil
	}
	s.values = nil
}

// Close releases the current page and the page reader. Later reads return
// io.EOF.
func (s *pageStream) Close() error {
	s.releasePage()
	s.done = true
	if s.pages != nil {
		err := s.pages.Close()
		s.pages = nil
		return err
	}
	return nil
}

// CloseStream closes s if it holds resources.
func CloseStream(s Stream) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
