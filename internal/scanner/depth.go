package scanner

import (
	"io"

	"tickshard/internal/column"
	"tickshard/models"
)

// levelList rebuilds one side of the book (a list of px/qty levels) into an
// offsets array plus flat value slices.
type levelList struct {
	name    string
	pxPath  string
	qtyPath string
	pxOn    bool
	qtyOn   bool

	off    *[]uint32
	pxOut  *[]int64
	qtyOut *[]int64

	batch   int
	px, qty *column.Cursor
	walkPx  bool
	walkQty bool
}

func newLevelList(name string, pxOn, qtyOn bool, off *[]uint32, pxOut, qtyOut *[]int64, batch int) *levelList {
	l := &levelList{
		name:    name,
		pxPath:  name + ".list.element.px",
		qtyPath: name + ".list.element.qty",
		pxOn:    pxOn,
		qtyOn:   qtyOn,
		off:     off,
		batch:   batch,
	}
	if pxOn {
		l.pxOut = pxOut
	}
	if qtyOn {
		l.qtyOut = qtyOut
	}
	return l
}

func (l *levelList) selected() bool { return l.pxOn || l.qtyOn }

// open positions the cursors on rg. Selected leaves must exist. The partner
// of a selected leaf is walked too when the shard has it, so a corrupt
// partner still surfaces as a desync.
func (l *levelList) open(rg column.RowGroup, group int, streams *[]column.Stream) error {
	l.walkPx = l.pxOn || rg.Has(l.pxPath)
	l.walkQty = l.qtyOn || rg.Has(l.qtyPath)

	if l.walkPx {
		s, err := rg.Column(l.pxPath)
		if err != nil {
			return &Error{RowGroup: group, Row: -1, Column: l.pxPath, Err: err}
		}
		*streams = append(*streams, s)
		l.px = l.cursor(l.px, s)
	}
	if l.walkQty {
		s, err := rg.Column(l.qtyPath)
		if err != nil {
			return &Error{RowGroup: group, Row: -1, Column: l.qtyPath, Err: err}
		}
		*streams = append(*streams, s)
		l.qty = l.cursor(l.qty, s)
	}

	*l.off = append((*l.off)[:0], 0)
	if l.pxOut != nil {
		*l.pxOut = (*l.pxOut)[:0]
	}
	if l.qtyOut != nil {
		*l.qtyOut = (*l.qtyOut)[:0]
	}
	return nil
}

func (l *levelList) cursor(c *column.Cursor, s column.Stream) *column.Cursor {
	if c == nil {
		return column.NewCursor(s, l.batch)
	}
	c.Reset(s)
	return c
}

// row walks the next row. Values and an offset are only kept when keep is
// set; the walk itself is identical either way.
func (l *levelList) row(keep bool) error {
	var pxSink, qtySink *[]int64
	if keep {
		pxSink, qtySink = l.pxOut, l.qtyOut
	}

	var n uint32
	var err error
	switch {
	case l.walkPx && l.walkQty:
		n, err = column.AppendPairRow(l.px, l.qty, pxSink, qtySink)
	case l.walkPx:
		n, err = l.px.AppendRow(pxSink)
	default:
		n, err = l.qty.AppendRow(qtySink)
	}
	if err != nil {
		return err
	}
	if keep {
		off := *l.off
		*l.off = append(off, off[len(off)-1]+n)
	}
	return nil
}

// DepthScanner fills a models.DepthView from depth shards.
type DepthScanner struct {
	view  models.DepthView
	flat  flatSet
	lists []*levelList

	streams []column.Stream
}

func NewDepthScanner(sel models.DepthSelect, batchSize int) *DepthScanner {
	if batchSize <= 0 {
		batchSize = column.DefaultBatchSize
	}
	s := &DepthScanner{}
	var ts *[]int64
	if sel.Ts {
		ts = &s.view.Ts
	}
	s.flat = newFlatSet(batchSize, ts)

	v := &s.view
	if sel.FirstID {
		s.flat.addInt64("firstId", &v.FirstID)
	}
	if sel.LastID {
		s.flat.addInt64("lastId", &v.LastID)
	}
	if sel.EventTime {
		s.flat.addInt64("eventTime", &v.EventTime)
	}

	for _, l := range []*levelList{
		newLevelList("ask", sel.AskPx, sel.AskQty, &v.AskOff, &v.AskPx, &v.AskQty, batchSize),
		newLevelList("bid", sel.BidPx, sel.BidQty, &v.BidOff, &v.BidPx, &v.BidQty, batchSize),
	} {
		if l.selected() {
			s.lists = append(s.lists, l)
		}
	}
	return s
}

// Scan decodes the next row group of sh. Level lists are walked for every
// row of the row group so they stay aligned with the scalar columns, but
// only in-window rows are kept.
func (s *DepthScanner) Scan(sh *Shard) (int, error) {
	rg, group, ok := sh.advance()
	if !ok {
		return 0, io.EOF
	}
	defer s.closeStreams()

	if err := s.flat.load(sh, rg, group); err != nil {
		return 0, err
	}
	s.flat.compact()

	for _, l := range s.lists {
		if err := l.open(rg, group, &s.streams); err != nil {
			return 0, err
		}
	}

	idx := s.flat.idx
	next := 0
	for i := 0; i < s.flat.rows; i++ {
		keep := next < len(idx) && int(idx[next]) == i
		if keep {
			next++
		}
		for _, l := range s.lists {
			if err := l.row(keep); err != nil {
				return 0, &Error{RowGroup: group, Row: i, Column: l.name, Err: err}
			}
		}
	}

	s.view.N = len(idx)
	s.view.File = sh.Path
	return s.view.N, nil
}

func (s *DepthScanner) closeStreams() {
	for _, st := range s.streams {
		column.CloseStream(st)
	}
	s.streams = s.streams[:0]
}

func (s *DepthScanner) View() *models.DepthView { return &s.view }
