package detect

import (
	"sort"

	"perpscreener/internal/screener/marketstore"
)

// TopVolumeEntry is one row of the top-volume ranking shown to the operator.
type TopVolumeEntry struct {
	Symbol       string  `json:"symbol"`
	Volume24h    float64 `json:"volume24h"` // Quote currency (USDT)
	Price        float64 `json:"price"`
	Change24hPct float64 `json:"change24h_pct"`
}

// TopVolume ranks all snapshots by 24h volume descending, ties broken by
// symbol id ascending for determinism, truncated to limit. The ranking is a
// full recompute each cycle, never an incremental patch.
func TopVolume(snaps []marketstore.Snapshot, limit int) []TopVolumeEntry {
	sorted := make([]marketstore.Snapshot, len(snaps))
	copy(sorted, snaps)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Volume24h != sorted[j].Volume24h {
			return sorted[i].Volume24h > sorted[j].Volume24h
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]TopVolumeEntry, len(sorted))
	for i, s := range sorted {
		out[i] = TopVolumeEntry{
			Symbol:       s.Symbol,
			Volume24h:    s.Volume24h,
			Price:        s.Price,
			Change24hPct: s.Change24hPct,
		}
	}
	return out
}
