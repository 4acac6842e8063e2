package alert

import "time"

// Kind classifies a market event.
type Kind string

const (
	KindBigTrade    Kind = "big_trade"
	KindVolumeSpike Kind = "volume_spike"
	KindPriceMove   Kind = "price_move"
)

// Alert is a single classified market event. Immutable once created; the
// deduplicator decides whether it reaches the operator.
type Alert struct {
	Kind      Kind      `json:"kind"`
	Symbol    string    `json:"symbol"`
	Magnitude float64   `json:"magnitude"` // Notional (USD), price change (%), or volume ratio (%)
	Score     float64   `json:"score"`     // Quality score, larger is stronger
	Time      time.Time `json:"time"`
	Summary   string    `json:"summary"` // Human-readable one-liner for the display
}
