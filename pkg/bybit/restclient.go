package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrMalformedPayload marks a response the client could not decode. Callers
// treat it as a per-symbol soft failure and skip retrying: the provider sent
// garbage, not a transient transport error.
var ErrMalformedPayload = errors.New("malformed payload")

// RESTClient talks to the Bybit V5 market data REST API. Credentials are
// optional; only read-only market endpoints are used.
type RESTClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// Credentials holds an optional Bybit API key pair.
type Credentials struct {
	APIKey    string
	APISecret string
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetCredentials attaches an API key pair; subsequent requests carry V5
// signing headers. Empty credentials leave requests unsigned.
func (c *RESTClient) SetCredentials(creds Credentials) {
	c.creds = creds
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetTickers fetches the full ticker board for a category.
func (c *RESTClient) GetTickers(ctx context.Context, category Category) (*TickerListResponse, error) {
	query := url.Values{"category": {string(category)}}

	var result TickerListResponse
	if err := c.get(ctx, "/v5/market/tickers", query, &result); err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}
	return &result, nil
}

// GetRecentTrades fetches up to limit recent public trades for a symbol.
func (c *RESTClient) GetRecentTrades(ctx context.Context, category Category, symbol string, limit int) (*TradeListResponse, error) {
	query := url.Values{
		"category": {string(category)},
		"symbol":   {symbol},
		"limit":    {strconv.Itoa(limit)},
	}

	var result TradeListResponse
	if err := c.get(ctx, "/v5/market/recent-trade", query, &result); err != nil {
		return nil, fmt.Errorf("get recent trades %s: %w", symbol, err)
	}
	return &result, nil
}

// GetInstruments fetches instrument metadata for a category.
func (c *RESTClient) GetInstruments(ctx context.Context, category Category) (*InstrumentListResponse, error) {
	query := url.Values{
		"category": {string(category)},
		"limit":    {"1000"},
	}

	var result InstrumentListResponse
	if err := c.get(ctx, "/v5/market/instruments-info", query, &result); err != nil {
		return nil, fmt.Errorf("get instruments: %w", err)
	}
	return &result, nil
}

// get performs a GET request against the V5 API and decodes the envelope's
// result payload into out.
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.sign(req, query.Encode())

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bybit error (%d): %s", resp.StatusCode, body)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", ErrMalformedPayload, err)
	}
	if envelope.RetCode != 0 {
		return fmt.Errorf("bybit retCode %d: %s", envelope.RetCode, envelope.RetMsg)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrMalformedPayload, err)
	}
	return nil
}
