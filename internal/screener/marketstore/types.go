package marketstore

import "time"

// Side is the taker side of a trade as reported by the exchange.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Snapshot is one per-cycle observation of a symbol's ticker state.
type Snapshot struct {
	Symbol       string    `json:"symbol"`        // Trading symbol (e.g., "BTCUSDT")
	Price        float64   `json:"price"`         // Last traded price
	Volume24h    float64   `json:"volume24h"`     // Rolling 24h turnover in quote currency (USDT)
	Change24hPct float64   `json:"change24h_pct"` // 24h price change in percent
	Time         time.Time `json:"time"`          // Observation time
}

// Trade is a single public trade normalized from the exchange feed.
type Trade struct {
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Price    float64   `json:"price"`
	Size     float64   `json:"size"`
	Notional float64   `json:"notional"` // Price * Size, quote currency
	Time     time.Time `json:"time"`
}

// Window is a point-in-time copy of a symbol's rolling history. Mutating it
// never affects the store.
type Window struct {
	Snapshots []Snapshot // Ordered by time, oldest first
	Trades    []Trade
}
