package stream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"perpscreener/internal/screener/marketstore"

	"go.uber.org/zap"
)

// MakeMessageHandler returns a function that handles incoming WebSocket
// messages by parsing publicTrade data and buffering it for the next cycle.
func MakeMessageHandler(logger *zap.Logger, buf *TradeBuffer) func(msg []byte) {
	return func(msg []byte) {
		// Step 1: Extract topic string for early filtering
		var meta struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(msg, &meta); err != nil {
			logger.Warn("failed to extract topic", zap.Error(err))
			return
		}
		if !isTradeTopic(meta.Topic) {
			return // Ignore non-trade messages (e.g., subscription responses, pongs)
		}

		// Step 2: Fully parse the trade message payload
		var parsed TradeMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			logger.Warn("failed to parse trade payload", zap.Error(err))
			return
		}

		// Step 3: Buffer normalized trades for the next cycle
		for _, d := range parsed.Data {
			price, err := strconv.ParseFloat(d.Price, 64)
			if err != nil {
				continue
			}
			size, err := strconv.ParseFloat(d.Size, 64)
			if err != nil {
				continue
			}
			side := marketstore.SideBuy
			if d.Side == "Sell" {
				side = marketstore.SideSell
			}

			buf.Add(marketstore.Trade{
				Symbol:   d.Symbol,
				Side:     side,
				Price:    price,
				Size:     size,
				Notional: price * size,
				Time:     time.UnixMilli(d.Time),
			})
		}
	}
}

// isTradeTopic returns true if the topic string indicates a publicTrade
// stream.
func isTradeTopic(topic string) bool {
	return strings.HasPrefix(topic, "publicTrade.")
}
