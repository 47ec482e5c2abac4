package scanner

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tickshard/internal/column"
	"tickshard/internal/shardtest"
	"tickshard/models"
)

func topGroup(ts ...int64) shardtest.MemGroup {
	px := make([]int64, len(ts))
	for i, t := range ts {
		px[i] = t * 10
	}
	return shardtest.MemGroup{
		Rows: int64(len(ts)),
		Columns: map[string][]column.Entry{
			"ts":     shardtest.Flat(ts...),
			"ask_px": shardtest.Flat(px...),
		},
	}
}

func TestTopScanWindow(t *testing.T) {
	f := &shardtest.MemFile{Groups: []shardtest.MemGroup{topGroup(5, 10, 15, 20, 25)}}
	sh := NewShard("mem", f, 10, 20, false)
	s := NewTopScanner(models.TopSelect{Ts: true, AskPx: true}, 2)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	v := s.View()
	require.Equal(t, []int64{10, 15}, v.Ts)
	require.Equal(t, []int64{100, 150}, v.AskPx)
	require.Nil(t, v.BidPx)
	require.Equal(t, "mem", v.File)

	_, err = s.Scan(sh)
	require.ErrorIs(t, err, io.EOF)
	require.True(t, sh.Done())
}

func TestTopScanOutsideWindow(t *testing.T) {
	f := &shardtest.MemFile{Groups: []shardtest.MemGroup{topGroup(1, 2), topGroup(50, 60)}}
	sh := NewShard("mem", f, 40, 55, false)
	s := NewTopScanner(models.TopSelect{AskPx: true}, 0)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Nil(t, s.View().Ts, "ts is decoded but not exposed")
	require.Equal(t, []int64{500}, s.View().AskPx)
}

func TestTopScanShortRead(t *testing.T) {
	g := topGroup(1, 2, 3, 4)
	g.Columns["ask_px"] = shardtest.Flat(10, 20, 30)
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 0, 100, false)
	s := NewTopScanner(models.TopSelect{Ts: true, AskPx: true}, 0)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []int64{1, 2, 3}, s.View().Ts)

	w := sh.Warnings()
	require.Len(t, w, 1)
	require.ErrorIs(t, w[0], ErrShortRead)
	require.Equal(t, "ask_px", w[0].Column)
	require.Empty(t, sh.Warnings(), "warnings are drained")
}

func TestTopScanVerifyOrder(t *testing.T) {
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{topGroup(1, 3, 2)}}, 0, 100, true)
	s := NewTopScanner(models.TopSelect{}, 0)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	w := sh.Warnings()
	require.Len(t, w, 1)
	require.ErrorIs(t, w[0], ErrUnordered)
	require.Equal(t, 2, w[0].Row)
}

func TestTopScanMissingColumn(t *testing.T) {
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{topGroup(1)}}, 0, 100, false)
	s := NewTopScanner(models.TopSelect{MinBidPx: true}, 0)

	_, err := s.Scan(sh)
	require.ErrorIs(t, err, column.ErrMissingColumn)
	var se *Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, "min_bid_px", se.Column)
}

func TestTradeScanBool(t *testing.T) {
	g := shardtest.MemGroup{
		Rows: 3,
		Columns: map[string][]column.Entry{
			"ts":       shardtest.Flat(1, 2, 3),
			"px":       shardtest.Flat(7, 8, 9),
			"isMarket": shardtest.Bools(true, false, true),
		},
	}
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 2, 4, false)
	s := NewTradeScanner(models.TradeSelect{Px: true, IsMarket: true}, 0)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []int64{8, 9}, s.View().Px)
	require.Equal(t, []bool{false, true}, s.View().IsMarket)
	require.Nil(t, s.View().Qty)
}

func depthGroup(ts []int64, ask, bid [][]int64) shardtest.MemGroup {
	qty := func(rows [][]int64) [][]int64 {
		out := make([][]int64, len(rows))
		for i, r := range rows {
			for _, v := range r {
				out[i] = append(out[i], v+1000)
			}
		}
		return out
	}
	return shardtest.MemGroup{
		Rows: int64(len(ts)),
		Columns: map[string][]column.Entry{
			"ts":                   shardtest.Flat(ts...),
			"ask.list.element.px":  shardtest.List(ask...),
			"ask.list.element.qty": shardtest.List(qty(ask)...),
			"bid.list.element.px":  shardtest.List(bid...),
			"bid.list.element.qty": shardtest.List(qty(bid)...),
		},
		ReadLimit: 1,
	}
}

func TestDepthScanOffsets(t *testing.T) {
	g := depthGroup([]int64{1, 2, 3},
		[][]int64{{10, 11}, nil, {12}},
		[][]int64{{5}, {6, 7}, nil},
	)
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 0, 10, false)
	s := NewDepthScanner(models.DepthSelect{Ts: true, AskPx: true, AskQty: true, BidPx: true}, 2)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	v := s.View()
	require.Equal(t, []uint32{0, 2, 2, 3}, v.AskOff)
	require.Equal(t, []int64{10, 11, 12}, v.AskPx)
	require.Equal(t, []int64{1010, 1011, 1012}, v.AskQty)
	require.Equal(t, []uint32{0, 1, 3, 3}, v.BidOff)
	require.Equal(t, []int64{5, 6, 7}, v.BidPx)
	require.Nil(t, v.BidQty)
}

func TestDepthScanPrunesRowsButKeepsAlignment(t *testing.T) {
	g := depthGroup([]int64{1, 2, 3, 4},
		[][]int64{{10, 11, 12}, {20}, nil, {40, 41}},
		[][]int64{{1}, {2}, {3}, {4}},
	)
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 2, 4, false)
	s := NewDepthScanner(models.DepthSelect{AskPx: true}, 1)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []uint32{0, 1, 1}, s.View().AskOff)
	require.Equal(t, []int64{20}, s.View().AskPx)
	require.Nil(t, s.View().AskQty)
	require.Nil(t, s.View().BidOff, "unselected side is not walked")
}

func TestDepthScanSingleLeafWhenPartnerAbsent(t *testing.T) {
	g := depthGroup([]int64{1, 2}, [][]int64{{1, 2}, {3}}, [][]int64{nil, nil})
	delete(g.Columns, "ask.list.element.qty")
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 0, 10, false)
	s := NewDepthScanner(models.DepthSelect{AskPx: true}, 0)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []uint32{0, 2, 3}, s.View().AskOff)
}

func TestDepthScanSelectedLeafMissing(t *testing.T) {
	g := depthGroup([]int64{1}, [][]int64{{1}}, [][]int64{{2}})
	delete(g.Columns, "bid.list.element.qty")
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 0, 10, false)
	s := NewDepthScanner(models.DepthSelect{BidQty: true}, 0)

	_, err := s.Scan(sh)
	require.ErrorIs(t, err, column.ErrMissingColumn)
}

func TestDepthScanDesync(t *testing.T) {
	g := depthGroup([]int64{1, 2, 3}, [][]int64{{1}, {2, 3}, {4}}, nil)
	g.Columns["ask.list.element.qty"] = shardtest.List([]int64{1}, []int64{2}, []int64{3, 4})
	sh := NewShard("mem", &shardtest.MemFile{Groups: []shardtest.MemGroup{g}}, 0, 10, false)
	// Only px is selected; qty is still walked and exposes the corruption.
	s := NewDepthScanner(models.DepthSelect{AskPx: true}, 0)

	_, err := s.Scan(sh)
	require.ErrorIs(t, err, column.ErrDesync)
	var se *Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, 1, se.Row)
	require.Equal(t, 0, se.RowGroup)
	require.Equal(t, "ask", se.Column)
}

func TestDepthScanParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depth.parquet")
	lv := func(px ...int64) []shardtest.Level {
		out := make([]shardtest.Level, len(px))
		for i, p := range px {
			out[i] = shardtest.Level{Px: p, Qty: p / 10}
		}
		return out
	}
	require.NoError(t, shardtest.WriteDepth(path,
		[]shardtest.DepthRow{
			{Ts: 1, FirstID: 1, Ask: lv(100, 101), Bid: lv(90)},
			{Ts: 2, FirstID: 2, Bid: lv(91, 92)},
		},
		[]shardtest.DepthRow{
			{Ts: 3, FirstID: 3, Ask: lv(102)},
		},
	))
	f, err := column.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sh := NewShard(path, f, 0, 10, true)
	s := NewDepthScanner(models.AllDepth(), 1)

	n, err := s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	v := s.View()
	require.Equal(t, []int64{1, 2}, v.FirstID)
	require.Equal(t, []uint32{0, 2, 2}, v.AskOff)
	require.Equal(t, []int64{100, 101}, v.AskPx)
	require.Equal(t, []int64{10, 10}, v.AskQty)
	require.Equal(t, []uint32{0, 1, 3}, v.BidOff)
	require.Equal(t, []int64{90, 91, 92}, v.BidPx)

	n, err = s.Scan(sh)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []uint32{0, 1}, s.View().AskOff)
	require.Equal(t, []uint32{0, 0}, s.View().BidOff)
	require.Empty(t, s.View().BidPx)
	require.Empty(t, sh.Warnings())

	_, err = s.Scan(sh)
	require.ErrorIs(t, err, io.EOF)
}
