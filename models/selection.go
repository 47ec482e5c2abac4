package models

// TopSelect chooses which top-of-book columns a reader materializes. The
// timestamp column is always decoded because window filtering depends on it;
// Ts only controls whether it is exposed in the view.
type TopSelect struct {
	Ts     bool
	AskPx  bool
	AskQty bool
	BidPx  bool
	BidQty bool
	Valu   bool

	// Sampled columns only exist in pre-aggregated shards.
	MinBidPx bool
	MaxBidPx bool
	MinAskPx bool
	MaxAskPx bool
	MinBidTs bool
	MaxBidTs bool
	MinAskTs bool
	MaxAskTs bool
}

// AllTop selects every column of a regular top shard. Sampled columns stay
// off since selecting a column a shard lacks aborts that shard.
func AllTop() TopSelect {
	return TopSelect{
		Ts:     true,
		AskPx:  true,
		AskQty: true,
		BidPx:  true,
		BidQty: true,
		Valu:   true,
	}
}

// SampledTop selects every column of a sampled top shard.
func SampledTop() TopSelect {
	sel := AllTop()
	sel.MinBidPx, sel.MaxBidPx = true, true
	sel.MinAskPx, sel.MaxAskPx = true, true
	sel.MinBidTs, sel.MaxBidTs = true, true
	sel.MinAskTs, sel.MaxAskTs = true, true
	return sel
}

// TradeSelect chooses which trade columns a reader materializes.
type TradeSelect struct {
	Ts            bool
	Px            bool
	Qty           bool
	TradeID       bool
	BuyerOrderID  bool
	SellerOrderID bool
	TradeTime     bool
	IsMarket      bool
	EventTime     bool
}

// AllTrade selects every trade column.
func AllTrade() TradeSelect {
	return TradeSelect{
		Ts:            true,
		Px:            true,
		Qty:           true,
		TradeID:       true,
		BuyerOrderID:  true,
		SellerOrderID: true,
		TradeTime:     true,
		IsMarket:      true,
		EventTime:     true,
	}
}

// DepthSelect chooses which depth-update columns a reader materializes.
type DepthSelect struct {
	Ts        bool
	FirstID   bool
	LastID    bool
	EventTime bool

	AskPx  bool
	AskQty bool
	BidPx  bool
	BidQty bool
}

// AllDepth selects every depth column.
func AllDepth() DepthSelect {
	return DepthSelect{
		Ts:        true,
		FirstID:   true,
		LastID:    true,
		EventTime: true,
		AskPx:     true,
		AskQty:    true,
		BidPx:     true,
		BidQty:    true,
	}
}

// Asks reports whether any ask level column is selected.
func (s DepthSelect) Asks() bool { return s.AskPx || s.AskQty }

// Bids reports whether any bid level column is selected.
func (s DepthSelect) Bids() bool { return s.BidPx || s.BidQty }
