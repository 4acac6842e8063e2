package stream

// TradeMessage represents a WebSocket message from Bybit's publicTrade topic.
type TradeMessage struct {
	Topic string      `json:"topic"` // e.g., "publicTrade.BTCUSDT"
	Type  string      `json:"type"`  // "snapshot" for trade topics
	Ts    int64       `json:"ts"`    // Message timestamp in milliseconds
	Data  []TradeData `json:"data"`
}

// TradeData is one trade entry in a publicTrade message. Field names follow
// Bybit's compact V5 schema.
type TradeData struct {
	Time   int64  `json:"T"` // Trade time in milliseconds since epoch
	Symbol string `json:"s"`
	Side   string `json:"S"` // "Buy" or "Sell" (taker side)
	Size   string `json:"v"`
	Price  string `json:"p"`
	ID     string `json:"i"`
}
