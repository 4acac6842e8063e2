package detect

import (
	"math"

	"perpscreener/internal/screener/marketstore"
)

// Alert quality scoring. The base score scales the magnitude over its
// threshold; a confirmed price trend in the same direction boosts it.

func (d *Detector) bigTradeScore(t marketstore.Trade, w marketstore.Window) float64 {
	if d.cfg.BigTradeThresholdUSD <= 0 {
		return 0
	}
	score := t.Notional / d.cfg.BigTradeThresholdUSD * 10

	up := t.Side == marketstore.SideBuy
	if d.trendConfirmed(w, up) {
		score *= 1.5
	}
	return score
}

func (d *Detector) priceMoveScore(pct float64, w marketstore.Window) float64 {
	if d.cfg.PriceChangeThresholdPct <= 0 {
		return 0
	}
	abs := math.Abs(pct)
	score := abs / d.cfg.PriceChangeThresholdPct * 8

	if d.trendConfirmed(w, pct > 0) {
		score *= 2.0
	}
	if abs > d.cfg.PriceChangeThresholdPct*2 {
		score *= 1.5
	}
	return score
}

func (d *Detector) volumeSpikeScore(ratioPct float64, w marketstore.Window) float64 {
	if d.cfg.VolumeSpikeThresholdPct <= 0 {
		return 0
	}
	score := ratioPct / d.cfg.VolumeSpikeThresholdPct * 5

	if t := d.cfg.VolumePriceCorrelationThreshold; t > 0 {
		if corr := volumePriceCorrelation(w); math.Abs(corr) > t {
			score *= 1.8
		}
	}
	return score
}

// volumePriceCorrelation is the Pearson correlation between per-snapshot
// price changes and volume levels over the window. Degenerate inputs (fewer
// than three snapshots, zero variance) yield 0.
func volumePriceCorrelation(w marketstore.Window) float64 {
	n := len(w.Snapshots)
	if n < 3 {
		return 0
	}

	m := float64(n - 1)
	var sumX, sumY float64
	for i := 1; i < n; i++ {
		sumX += w.Snapshots[i].Price - w.Snapshots[i-1].Price
		sumY += w.Snapshots[i].Volume24h
	}
	meanX, meanY := sumX/m, sumY/m

	var covXY, varX, varY float64
	for i := 1; i < n; i++ {
		dx := (w.Snapshots[i].Price - w.Snapshots[i-1].Price) - meanX
		dy := w.Snapshots[i].Volume24h - meanY
		covXY += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return covXY / math.Sqrt(varX*varY)
}

// trendConfirmed reports whether the last TrendConfirmationPeriods snapshot
// prices moved strictly in one direction.
func (d *Detector) trendConfirmed(w marketstore.Window, up bool) bool {
	periods := d.cfg.TrendConfirmationPeriods
	if periods <= 0 {
		return false
	}
	n := len(w.Snapshots)
	if n < periods+1 {
		return false
	}

	for i := n - periods; i < n; i++ {
		prev, cur := w.Snapshots[i-1].Price, w.Snapshots[i].Price
		if up && cur <= prev {
			return false
		}
		if !up && cur >= prev {
			return false
		}
	}
	return true
}
