package detect

import (
	"fmt"
	"math"
	"strings"

	"perpscreener/internal/screener/alert"
	"perpscreener/internal/screener/marketstore"
)

// Config holds the detection thresholds. Values follow the operator config;
// percentages are in percent, not fractions.
type Config struct {
	BigTradeThresholdUSD     float64
	PriceChangeThresholdPct  float64
	VolumeSpikeThresholdPct  float64
	TrendConfirmationPeriods int

	// Absolute volume-price correlation above which a volume spike's score
	// is boosted; 0 disables the boost
	VolumePriceCorrelationThreshold float64
}

// Detector runs the per-symbol classifiers. Each classifier is a pure
// function of the current snapshot, this cycle's trades, and the rolling
// window; none of them mutates state and they run in any order.
type Detector struct {
	cfg Config
}

func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs all classifiers for one symbol. The window is expected to
// already include the current snapshot.
func (d *Detector) Detect(snap marketstore.Snapshot, trades []marketstore.Trade, w marketstore.Window) []alert.Alert {
	var out []alert.Alert
	out = append(out, d.bigTrades(trades, w)...)
	if a, ok := d.priceMove(snap, w); ok {
		out = append(out, a)
	}
	if a, ok := d.volumeSpike(snap, w); ok {
		out = append(out, a)
	}
	return out
}

// bigTrades flags every trade of this cycle at or above the notional
// threshold. Eligible even while the symbol's window is still warming up.
func (d *Detector) bigTrades(trades []marketstore.Trade, w marketstore.Window) []alert.Alert {
	var out []alert.Alert
	for _, t := range trades {
		if t.Notional < d.cfg.BigTradeThresholdUSD {
			continue
		}
		out = append(out, alert.Alert{
			Kind:      alert.KindBigTrade,
			Symbol:    t.Symbol,
			Magnitude: t.Notional,
			Score:     d.bigTradeScore(t, w),
			Time:      t.Time,
			Summary: fmt.Sprintf("%s %s %s @ %s ($%s)",
				t.Symbol, strings.ToUpper(string(t.Side)),
				trimFloat(t.Size), trimFloat(t.Price), trimFloat(t.Notional)),
		})
	}
	return out
}

// priceMove compares the current price against the price at the start of the
// rolling window. Requires at least two snapshots of history.
func (d *Detector) priceMove(snap marketstore.Snapshot, w marketstore.Window) (alert.Alert, bool) {
	if len(w.Snapshots) < 2 {
		return alert.Alert{}, false
	}
	base := w.Snapshots[0].Price
	if base == 0 {
		return alert.Alert{}, false
	}

	pct := (snap.Price - base) / base * 100
	if math.Abs(pct) < d.cfg.PriceChangeThresholdPct {
		return alert.Alert{}, false
	}

	direction := "up"
	if pct < 0 {
		direction = "down"
	}
	return alert.Alert{
		Kind:      alert.KindPriceMove,
		Symbol:    snap.Symbol,
		Magnitude: math.Abs(pct),
		Score:     d.priceMoveScore(pct, w),
		Time:      snap.Time,
		Summary: fmt.Sprintf("%s %s %.2f%% (%s -> %s)",
			snap.Symbol, direction, math.Abs(pct),
			trimFloat(base), trimFloat(snap.Price)),
	}, true
}

// volumeSpike compares the current cycle's 24h-volume delta against the mean
// of the trailing deltas in the window, as a percentage. Requires at least
// three snapshots so one trailing delta exists.
func (d *Detector) volumeSpike(snap marketstore.Snapshot, w marketstore.Window) (alert.Alert, bool) {
	n := len(w.Snapshots)
	if n < 3 {
		return alert.Alert{}, false
	}

	current := snap.Volume24h - w.Snapshots[n-2].Volume24h
	if current <= 0 {
		return alert.Alert{}, false
	}

	// Trailing mean of positive deltas; the 24h figure shrinks as old
	// activity rolls out, so negative deltas count as zero
	var sum float64
	for i := 1; i < n-1; i++ {
		if delta := w.Snapshots[i].Volume24h - w.Snapshots[i-1].Volume24h; delta > 0 {
			sum += delta
		}
	}
	mean := sum / float64(n-2)
	if mean <= 0 {
		return alert.Alert{}, false
	}

	ratioPct := current / mean * 100
	if ratioPct < d.cfg.VolumeSpikeThresholdPct {
		return alert.Alert{}, false
	}

	return alert.Alert{
		Kind:      alert.KindVolumeSpike,
		Symbol:    snap.Symbol,
		Magnitude: ratioPct,
		Score:     d.volumeSpikeScore(ratioPct, w),
		Time:      snap.Time,
		Summary: fmt.Sprintf("%s volume spike %.0f%% of trailing average ($%s this cycle)",
			snap.Symbol, ratioPct, trimFloat(current)),
	}, true
}

// trimFloat formats a price or size without trailing zeros.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
