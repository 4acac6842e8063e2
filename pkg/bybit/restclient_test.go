package bybit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const tickersBody = `{
	"retCode": 0,
	"retMsg": "OK",
	"result": {
		"category": "linear",
		"list": [
			{"symbol": "BTCUSDT", "lastPrice": "64250.5", "price24hPcnt": "0.0312",
			 "volume24h": "120000", "turnover24h": "7700000000"},
			{"symbol": "ETHUSDT", "lastPrice": "3120.25", "price24hPcnt": "-0.015",
			 "volume24h": "800000", "turnover24h": "2500000000"}
		]
	},
	"time": 1718000000000
}`

// go test -v --run TestGetTickers
func TestGetTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/tickers" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("category"); got != "linear" {
			t.Errorf("unexpected category: %s", got)
		}
		w.Write([]byte(tickersBody))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	resp, err := client.GetTickers(context.Background(), CategoryLinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.List) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(resp.List))
	}
	if resp.List[0].Symbol != "BTCUSDT" || resp.List[0].LastPrice != "64250.5" {
		t.Errorf("unexpected first ticker: %+v", resp.List[0])
	}
}

// go test -v --run TestGetRecentTradesQuery
func TestGetRecentTradesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("limit") != "100" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[
			{"execId":"1","symbol":"BTCUSDT","price":"64000","size":"2","side":"Buy","time":"1718000000000"}
		]},"time":1718000000000}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	resp, err := client.GetRecentTrades(context.Background(), CategoryLinear, "BTCUSDT", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.List) != 1 || resp.List[0].Side != "Buy" {
		t.Errorf("unexpected trades: %+v", resp.List)
	}
}

// go test -v --run TestRetCodeError
func TestRetCodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":10001,"retMsg":"params error","result":null}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	_, err := client.GetTickers(context.Background(), CategoryLinear)
	if err == nil {
		t.Fatal("expected error for non-zero retCode")
	}
	if !strings.Contains(err.Error(), "params error") {
		t.Errorf("error does not carry retMsg: %v", err)
	}
}

// go test -v --run TestMalformedPayload
func TestMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":"not an object"}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	_, err := client.GetTickers(context.Background(), CategoryLinear)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

// go test -v --run TestSignedRequestHeaders
func TestSignedRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-BAPI-API-KEY") != "key" {
			t.Error("missing API key header")
		}
		if r.Header.Get("X-BAPI-SIGN") == "" || r.Header.Get("X-BAPI-TIMESTAMP") == "" {
			t.Error("missing signature headers")
		}
		w.Write([]byte(tickersBody))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	client.SetCredentials(Credentials{APIKey: "key", APISecret: "secret"})
	if _, err := client.GetTickers(context.Background(), CategoryLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// go test -v --run TestUnsignedRequestWithoutCredentials
func TestUnsignedRequestWithoutCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-BAPI-API-KEY") != "" {
			t.Error("unexpected auth header on unsigned request")
		}
		w.Write([]byte(tickersBody))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	if _, err := client.GetTickers(context.Background(), CategoryLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
