package scanner

import (
	"io"

	"tickshard/models"
)

// TradeScanner fills a models.TradeView from trade shards.
type TradeScanner struct {
	view models.TradeView
	flat flatSet
}

func NewTradeScanner(sel models.TradeSelect, batchSize int) *TradeScanner {
	s := &TradeScanner{}
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
		{sel.Px, "px", &v.Px},
		{sel.Qty, "qty", &v.Qty},
		{sel.TradeID, "tradeId", &v.TradeID},
		{sel.BuyerOrderID, "buyerOrderId", &v.BuyerOrderID},
		{sel.SellerOrderID, "sellerOrderId", &v.SellerOrderID},
		{sel.TradeTime, "tradeTime", &v.TradeTime},
		{sel.EventTime, "eventTime", &v.EventTime},
	} {
		if c.on {
			s.flat.addInt64(c.path, c.out)
		}
	}
	if sel.IsMarket {
		s.flat.addBool("isMarket", &v.IsMarket)
	}
	return s
}

func (s *TradeScanner) Scan(sh *Shard) (int, error) {
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

func (s *TradeScanner) View() *models.TradeView { return &s.view }
