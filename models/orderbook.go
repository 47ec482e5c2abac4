package models

// Level is one order-book price level.
type Level struct {
	Px  int64 `json:"px"`
	Qty int64 `json:"qty"`
}

// Snapshot is a materialized top-of-book row. Sampled fields are zero unless
// the row came from a sampled shard with those columns selected.
type Snapshot struct {
	Ts     int64 `json:"ts"`
	AskPx  int64 `json:"ask_px"`
	AskQty int64 `json:"ask_qty"`
	BidPx  int64 `json:"bid_px"`
	BidQty int64 `json:"bid_qty"`
	Valu   int64 `json:"valu"`

	MinBidPx int64 `json:"min_bid_px,omitempty"`
	MaxBidPx int64 `json:"max_bid_px,omitempty"`
	MinAskPx int64 `json:"min_ask_px,omitempty"`
	MaxAskPx int64 `json:"max_ask_px,omitempty"`
	MinBidTs int64 `json:"min_bid_ts,omitempty"`
	MaxBidTs int64 `json:"max_bid_ts,omitempty"`
	MinAskTs int64 `json:"min_ask_ts,omitempty"`
	MaxAskTs int64 `json:"max_ask_ts,omitempty"`
}

// Trade is a materialized trade row.
type Trade struct {
	Ts            int64 `json:"ts"`
	Px            int64 `json:"px"`
	Qty           int64 `json:"qty"`
	TradeID       int64 `json:"tradeId"`
	BuyerOrderID  int64 `json:"buyerOrderId"`
	SellerOrderID int64 `json:"sellerOrderId"`
	TradeTime     int64 `json:"tradeTime"`
	IsMarket      bool  `json:"isMarket"`
	EventTime     int64 `json:"eventTime"`
}

// Delta is a materialized depth-update row. Its level slices are owned by
// the Delta and stay valid after the reader advances.
type Delta struct {
	Ts        int64   `json:"ts"`
	FirstID   int64   `json:"firstId"`
	LastID    int64   `json:"lastId"`
	EventTime int64   `json:"eventTime"`
	Asks      []Level `json:"asks"`
	Bids      []Level `json:"bids"`
}
