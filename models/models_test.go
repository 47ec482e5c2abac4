package models

import (
	"encoding/json"
	"testing"
)

func TestDepthViewRowCopiesLevels(t *testing.T) {
	v := DepthView{
		Ts:     []int64{10, 20, 30},
		AskOff: []uint32{0, 2, 2, 3},
		AskPx:  []int64{101, 102, 103},
		AskQty: []int64{1, 2, 3},
		N:      3,
	}

	row := v.Row(0)
	if len(row.Asks) != 2 || row.Asks[1] != (Level{Px: 102, Qty: 2}) {
		t.Fatalf("unexpected asks for row 0: %+v", row.Asks)
	}
	if row.Bids != nil {
		t.Fatalf("bids were not selected, got %+v", row.Bids)
	}

	v.AskPx[0] = 999
	if row.Asks[0].Px != 101 {
		t.Fatalf("row must not alias the view buffers")
	}

	if empty := v.Row(1); len(empty.Asks) != 0 {
		t.Fatalf("expected empty ask list for row 1, got %+v", empty.Asks)
	}
}

func TestDepthViewAsksPartialSelection(t *testing.T) {
	v := DepthView{
		AskOff: []uint32{0, 1, 3},
		AskQty: []int64{5, 6, 7},
		N:      2,
	}
	px, qty := v.Asks(1)
	if px != nil {
		t.Fatalf("expected nil px slice, got %v", px)
	}
	if len(qty) != 2 || qty[0] != 6 || qty[1] != 7 {
		t.Fatalf("unexpected qty slice: %v", qty)
	}
}

func TestTradeViewRow(t *testing.T) {
	v := TradeView{
		Ts:       []int64{1, 2},
		Px:       []int64{100, 200},
		IsMarket: []bool{false, true},
		N:        2,
	}
	got := v.Row(1)
	if got.Ts != 2 || got.Px != 200 || !got.IsMarket || got.Qty != 0 {
		t.Fatalf("unexpected trade row: %+v", got)
	}
}

func TestSnapshotJSONOmitsSampledFields(t *testing.T) {
	data, err := json.Marshal(Snapshot{Ts: 1, AskPx: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["min_bid_px"]; ok {
		t.Fatalf("sampled fields should be omitted when zero: %s", data)
	}
	if _, ok := fields["ask_px"]; !ok {
		t.Fatalf("core fields must always be present: %s", data)
	}
}

func TestSelectionConstructors(t *testing.T) {
	top := AllTop()
	if !top.AskPx || top.MinBidPx {
		t.Fatalf("AllTop should select core columns only: %+v", top)
	}
	if s := SampledTop(); !s.MaxAskTs || !s.Valu {
		t.Fatalf("SampledTop should select everything: %+v", s)
	}
	d := DepthSelect{AskQty: true}
	if !d.Asks() || d.Bids() {
		t.Fatalf("unexpected side detection: asks=%v bids=%v", d.Asks(), d.Bids())
	}
}
