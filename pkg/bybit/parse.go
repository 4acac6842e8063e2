package bybit

import (
	"strconv"
	"time"

	"perpscreener/internal/screener/marketstore"
)

// ParseTickers converts a ticker board into snapshot records stamped with the
// observation time. Rows with unparseable numeric fields are skipped.
func ParseTickers(resp *TickerListResponse, at time.Time) []marketstore.Snapshot {
	out := make([]marketstore.Snapshot, 0, len(resp.List))

	for _, t := range resp.List {
		if t.Symbol == "" {
			continue // skip incomplete row
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil {
			continue
		}
		turnover, err := strconv.ParseFloat(t.Turnover24h, 64)
		if err != nil {
			continue
		}
		// Optional field: 24h change arrives as a fraction ("0.0312"),
		// converted to percent here
		changePct := 0.0
		if pcnt, err := strconv.ParseFloat(t.Price24hPcnt, 64); err == nil {
			changePct = pcnt * 100
		}

		out = append(out, marketstore.Snapshot{
			Symbol:       t.Symbol,
			Price:        price,
			Volume24h:    turnover,
			Change24hPct: changePct,
			Time:         at,
		})
	}
	return out
}

// ParseTrades converts recent public trades into normalized trade records.
// Rows with unparseable fields are skipped.
func ParseTrades(resp *TradeListResponse) []marketstore.Trade {
	out := make([]marketstore.Trade, 0, len(resp.List))

	for _, t := range resp.List {
		if t.Symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(t.Size, 64)
		if err != nil {
			continue
		}
		ms, err := strconv.ParseInt(t.Time, 10, 64)
		if err != nil {
			continue
		}
		side := marketstore.SideBuy
		if t.Side == "Sell" {
			side = marketstore.SideSell
		}

		out = append(out, marketstore.Trade{
			Symbol:   t.Symbol,
			Side:     side,
			Price:    price,
			Size:     size,
			Notional: price * size,
			Time:     time.UnixMilli(ms),
		})
	}
	return out
}
