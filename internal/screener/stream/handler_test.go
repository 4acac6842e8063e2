package stream

import (
	"testing"
	"time"

	"perpscreener/internal/screener/marketstore"

	"go.uber.org/zap"
)

// go test -v --run TestHandlerBuffersPublicTrades
func TestHandlerBuffersPublicTrades(t *testing.T) {
	buf := NewTradeBuffer(100)
	handle := MakeMessageHandler(zap.NewNop(), buf)

	handle([]byte(`{
		"topic": "publicTrade.BTCUSDT",
		"type": "snapshot",
		"ts": 1718000000100,
		"data": [
			{"T": 1718000000000, "s": "BTCUSDT", "S": "Buy", "v": "2", "p": "64000", "i": "abc-1"},
			{"T": 1718000000050, "s": "BTCUSDT", "S": "Sell", "v": "0.5", "p": "63990", "i": "abc-2"}
		]
	}`))

	got := buf.Drain()
	trades := got["BTCUSDT"]
	if len(trades) != 2 {
		t.Fatalf("expected 2 buffered trades, got %d", len(trades))
	}

	first := trades[0]
	if first.Side != marketstore.SideBuy {
		t.Errorf("Side = %q, want Buy", first.Side)
	}
	if first.Notional != 128000 {
		t.Errorf("Notional = %v, want 128000", first.Notional)
	}
	if !first.Time.Equal(time.UnixMilli(1718000000000)) {
		t.Errorf("Time = %v, want %v", first.Time, time.UnixMilli(1718000000000))
	}
	if trades[1].Side != marketstore.SideSell {
		t.Errorf("second trade Side = %q, want Sell", trades[1].Side)
	}
}

// go test -v --run TestHandlerIgnoresControlMessages
func TestHandlerIgnoresControlMessages(t *testing.T) {
	buf := NewTradeBuffer(100)
	handle := MakeMessageHandler(zap.NewNop(), buf)

	// Subscription ack, pong and an unrelated topic must all be dropped
	handle([]byte(`{"success":true,"ret_msg":"","op":"subscribe","conn_id":"abc"}`))
	handle([]byte(`{"op":"pong"}`))
	handle([]byte(`{"topic":"tickers.BTCUSDT","data":{"symbol":"BTCUSDT"}}`))
	handle([]byte(`not json at all`))

	if got := buf.Drain(); len(got) != 0 {
		t.Errorf("control messages must not be buffered, got %v", got)
	}
}

// go test -v --run TestHandlerSkipsUnparsableRows
func TestHandlerSkipsUnparsableRows(t *testing.T) {
	buf := NewTradeBuffer(100)
	handle := MakeMessageHandler(zap.NewNop(), buf)

	handle([]byte(`{
		"topic": "publicTrade.ETHUSDT",
		"data": [
			{"T": 1718000000000, "s": "ETHUSDT", "S": "Buy", "v": "bogus", "p": "3000", "i": "x-1"},
			{"T": 1718000000001, "s": "ETHUSDT", "S": "Buy", "v": "1", "p": "3000", "i": "x-2"}
		]
	}`))

	trades := buf.Drain()["ETHUSDT"]
	if len(trades) != 1 {
		t.Fatalf("expected the bad row skipped, got %d trades", len(trades))
	}
	if trades[0].Notional != 3000 {
		t.Errorf("Notional = %v, want 3000", trades[0].Notional)
	}
}

// go test -v --run TestTradeBufferCapDropsOldest
func TestTradeBufferCapDropsOldest(t *testing.T) {
	buf := NewTradeBuffer(2)

	for i, price := range []float64{1, 2, 3} {
		buf.Add(marketstore.Trade{
			Symbol: "BTCUSDT",
			Price:  price,
			Time:   time.UnixMilli(int64(i)),
		})
	}

	trades := buf.Drain()["BTCUSDT"]
	if len(trades) != 2 {
		t.Fatalf("expected buffer capped at 2, got %d", len(trades))
	}
	if trades[0].Price != 2 || trades[1].Price != 3 {
		t.Errorf("expected oldest dropped, got prices %v, %v", trades[0].Price, trades[1].Price)
	}
}

// go test -v --run TestDrainResetsBuffer
func TestDrainResetsBuffer(t *testing.T) {
	buf := NewTradeBuffer(10)
	buf.Add(marketstore.Trade{Symbol: "BTCUSDT", Price: 1})

	if got := buf.Drain(); len(got["BTCUSDT"]) != 1 {
		t.Fatalf("first drain should yield the trade, got %v", got)
	}
	if got := buf.Drain(); len(got) != 0 {
		t.Errorf("second drain must be empty, got %v", got)
	}
}
