package bybit

import "encoding/json"

// Response represents the generic envelope of Bybit's V5 REST API.
// This structure covers the standard response format used across all endpoints.
type Response struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Main response payload (varies per endpoint), decoded lazily
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

// Ticker is one row of the /v5/market/tickers response. All numeric fields
// arrive as strings; ParseTickers converts them.
type Ticker struct {
	Symbol       string `json:"symbol"`       // e.g., "BTCUSDT"
	LastPrice    string `json:"lastPrice"`    // Last traded price
	Price24hPcnt string `json:"price24hPcnt"` // 24h change as a fraction, e.g. "0.0312"
	Volume24h    string `json:"volume24h"`    // 24h volume in base currency
	Turnover24h  string `json:"turnover24h"`  // 24h turnover in quote currency (USDT)
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
}

type TickerListResponse struct {
	Category Category `json:"category"`
	List     []Ticker `json:"list"`
}

// PublicTrade is one row of the /v5/market/recent-trade response.
type PublicTrade struct {
	ExecID string `json:"execId"`
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Size   string `json:"size"`
	Side   string `json:"side"` // "Buy" or "Sell" (taker side)
	Time   string `json:"time"` // Trade time in milliseconds since epoch
}

type TradeListResponse struct {
	Category Category      `json:"category"`
	List     []PublicTrade `json:"list"`
}

type InstrumentListResponse struct {
	Category       Category `json:"category"`
	NextPageCursor string   `json:"nextPageCursor"`
	List           []struct {
		Symbol    string `json:"symbol"`    // e.g., "BTCUSDT"
		BaseCoin  string `json:"baseCoin"`  // e.g., "BTC"
		QuoteCoin string `json:"quoteCoin"` // e.g., "USDT"
		Status    string `json:"status"`    // e.g., "Trading"
	} `json:"list"`
}
