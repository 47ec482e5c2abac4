package scanner

import (
	"io"

	"tickshard/models"
)

// TopScanner fills a models.TopView from top-of-book shards.
type TopScanner struct {
	view models.TopView
	flat flatSet
}

func NewTopScanner(sel models.TopSelect, batchSize int) *TopScanner {
	s := &TopScanner{}
	var ts *[]int64
	if sel.Ts {
		ts = &s.view.Ts
	}
	s.flat = newFlatSet(batchSize, ts)

	v := &s.view
	for _, c := range []struct {
		on   bool
		path string
		out  *[]int64
	}{
		{sel.AskPx, "ask_px", &v.AskPx},
		{sel.AskQty, "ask_qty", &v.AskQty},
		{sel.BidPx, "bid_px", &v.BidPx},
		{sel.BidQty, "bid_qty", &v.BidQty},
		{sel.Valu, "valu", &v.Valu},
		{sel.MinBidPx, "min_bid_px", &v.MinBidPx},
		{sel.MaxBidPx, "max_bid_px", &v.MaxBidPx},
		{sel.MinAskPx, "min_ask_px", &v.MinAskPx},
		{sel.MaxAskPx, "max_ask_px", &v.MaxAskPx},
		{sel.MinBidTs, "min_bid_ts", &v.MinBidTs},
		{sel.MaxBidTs, "max_bid_ts", &v.MaxBidTs},
		{sel.MinAskTs, "min_ask_ts", &v.MinAskTs},
		{sel.MaxAskTs, "max_ask_ts", &v.MaxAskTs},
	} {
		if c.on {
			s.flat.addInt64(c.path, c.out)
		}
	}
	return s
}

// Scan decodes the next row group of sh. It returns io.EOF once the shard
// has no row groups left; zero rows with a nil error means the row group had
// nothing inside the window.
func (s *TopScanner) Scan(sh *Shard) (int, error) {
	rg, group, ok := sh.advance()
	if !ok {
		return 0, io.EOF
	}
	if err := s.flat.load(sh, rg, group); err != nil {
		return 0, err
	}
	s.flat.compact()
	s.view.N = len(s.flat.idx)
	s.view.File = sh.Path
	return s.view.N, nil
}

// View is the batch produced by the last Scan. It is overwritten by the next.
func (s *TopScanner) View() *models.TopView { return &s.view }
