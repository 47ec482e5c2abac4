package models

// The views below borrow buffers owned by a batch reader. Every slice and the
// File name are valid only until the next Next call on the reader that filled
// the view; use Row to copy out anything that must outlive it. Slices of
// unselected columns are nil.

// TopView is one batch of top-of-book rows.
type TopView struct {
	Ts     []int64
	AskPx  []int64
	AskQty []int64
	BidPx  []int64
	BidQty []int64
	Valu   []int64

	MinBidPx []int64
	MaxBidPx []int64
	MinAskPx []int64
	MaxAskPx []int64
	MinBidTs []int64
	MaxBidTs []int64
	MinAskTs []int64
	MaxAskTs []int64

	File string
	N    int
}

// Row copies row i out of the view.
func (v *TopView) Row(i int) Snapshot {
	return Snapshot{
		Ts:       at(v.Ts, i),
		AskPx:    at(v.AskPx, i),
		AskQty:   at(v.AskQty, i),
		BidPx:    at(v.BidPx, i),
		BidQty:   at(v.BidQty, i),
		Valu:     at(v.Valu, i),
		MinBidPx: at(v.MinBidPx, i),
		MaxBidPx: at(v.MaxBidPx, i),
		MinAskPx: at(v.MinAskPx, i),
		MaxAskPx: at(v.MaxAskPx, i),
		MinBidTs: at(v.MinBidTs, i),
		MaxBidTs: at(v.MaxBidTs, i),
		MinAskTs: at(v.MinAskTs, i),
		MaxAskTs: at(v.MaxAskTs, i),
	}
}

// TradeView is one batch of trade rows.
type TradeView struct {
	Ts            []int64
	Px            []int64
	Qty           []int64
	TradeID       []int64
	BuyerOrderID  []int64
	SellerOrderID []int64
	TradeTime     []int64
	IsMarket      []bool
	EventTime     []int64

	File string
	N    int
}

// Row copies row i out of the view.
func (v *TradeView) Row(i int) Trade {
	t := Trade{
		Ts:            at(v.Ts, i),
		Px:            at(v.Px, i),
		Qty:           at(v.Qty, i),
		TradeID:       at(v.TradeID, i),
		BuyerOrderID:  at(v.BuyerOrderID, i),
		SellerOrderID: at(v.SellerOrderID, i),
		TradeTime:     at(v.TradeTime, i),
		EventTime:     at(v.EventTime, i),
	}
	if v.IsMarket != nil {
		t.IsMarket = v.IsMarket[i]
	}
	return t
}

// DepthView is one batch of depth-update rows. Ask and bid levels are stored
// as flat value slices indexed by offsets: row i owns
// AskPx[AskOff[i]:AskOff[i+1]], so len(AskOff) == N+1 whenever asks are
// selected.
type DepthView struct {
	Ts        []int64
	FirstID   []int64
	LastID    []int64
	EventTime []int64

	AskOff []uint32
	AskPx  []int64
	AskQty []int64

	BidOff []uint32
	BidPx  []int64
	BidQty []int64

	File string
	N    int
}

// Asks returns the ask level slices of row i. Either slice is nil when its
// column was not selected. The slices alias the view.
func (v *DepthView) Asks(i int) (px, qty []int64) {
	return levels(v.AskOff, v.AskPx, v.AskQty, i)
}

// Bids returns the bid level slices of row i.
func (v *DepthView) Bids(i int) (px, qty []int64) {
	return levels(v.BidOff, v.BidPx, v.BidQty, i)
}

// Row copies row i out of the view, levels included.
func (v *DepthView) Row(i int) Delta {
	d := Delta{
		Ts:        at(v.Ts, i),
		FirstID:   at(v.FirstID, i),
		LastID:    at(v.LastID, i),
		EventTime: at(v.EventTime, i),
	}
	if v.AskOff != nil {
		px, qty := v.Asks(i)
		d.Asks = copyLevels(px, qty, int(v.AskOff[i+1]-v.AskOff[i]))
	}
	if v.BidOff != nil {
		px, qty := v.Bids(i)
		d.Bids = copyLevels(px, qty, int(v.BidOff[i+1]-v.BidOff[i]))
	}
	return d
}

func at(col []int64, i int) int64 {
	if col == nil {
		return 0
	}
	return col[i]
}

func levels(off []uint32, px, qty []int64, i int) ([]int64, []int64) {
	if off == nil {
		return nil, nil
	}
	lo, hi := off[i], off[i+1]
	var p, q []int64
	if px != nil {
		p = px[lo:hi]
	}
	if qty != nil {
		q = qty[lo:hi]
	}
	return p, q
}

func copyLevels(px, qty []int64, n int) []Level {
	out := make([]Level, n)
	for j := range out {
		if px != nil {
			out[j].Px = px[j]
		}
		if qty != nil {
			out[j].Qty = qty[j]
		}
	}
	return out
}
