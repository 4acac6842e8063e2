package stream

import (
	"sync"

	"perpscreener/internal/screener/marketstore"
)

// TradeBuffer collects live trades between cycles. The engine drains it once
// per cycle and merges the result with polled trades, so the buffer never
// grows past perSymbol entries per symbol.
type TradeBuffer struct {
	mu        sync.Mutex
	perSymbol int
	trades    map[string][]marketstore.Trade
}

func NewTradeBuffer(perSymbol int) *TradeBuffer {
	if perSymbol < 1 {
		perSymbol = 1
	}
	return &TradeBuffer{
		perSymbol: perSymbol,
		trades:    make(map[string][]marketstore.Trade),
	}
}

// Add appends a trade, dropping the oldest entry for the symbol once the
// per-symbol cap is reached.
func (b *TradeBuffer) Add(t marketstore.Trade) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := b.trades[t.Symbol]
	if len(buf) >= b.perSymbol {
		buf = buf[1:]
	}
	b.trades[t.Symbol] = append(buf, t)
}

// Drain returns all buffered trades and resets the buffer.
func (b *TradeBuffer) Drain() map[string][]marketstore.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.trades
	b.trades = make(map[string][]marketstore.Trade)
	return out
}
