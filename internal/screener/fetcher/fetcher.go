package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"perpscreener/internal/screener/marketstore"
	"perpscreener/internal/screener/ratelimit"
	"perpscreener/pkg/bybit"

	"go.uber.org/zap"
)

// Config holds the fetch policy.
type Config struct {
	Category       bybit.Category
	TradeLimit     int           // Recent trades per symbol per request
	MaxAttempts    int           // Bounded retry on transport failures
	RetryBaseDelay time.Duration // Doubles per attempt
	AcquireTimeout time.Duration // Caller deadline on Gate acquisition
	DegradedAfter  int           // Consecutive failing cycles before a symbol is reported degraded
}

// Fetcher pulls ticker and recent-trade data through the rate-limit gate and
// normalizes provider payloads into internal records. Failures are per
// symbol: one bad symbol never aborts the cycle for the rest.
type Fetcher struct {
	client *bybit.RESTClient
	gate   *ratelimit.Limiter
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	failures map[string]int
}

// Result is the per-symbol outcome of a trade fetch.
type Result struct {
	Trades []marketstore.Trade
	Err    error
}

func New(client *bybit.RESTClient, gate *ratelimit.Limiter, cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Fetcher{
		client:   client,
		gate:     gate,
		cfg:      cfg,
		logger:   logger,
		failures: make(map[string]int),
	}
}

// Tickers fetches the full ticker board and normalizes it into snapshots
// stamped with the fetch time.
func (f *Fetcher) Tickers(ctx context.Context) ([]marketstore.Snapshot, error) {
	var resp *bybit.TickerListResponse
	err := f.withRetry(ctx, "tickers", func(ctx context.Context) error {
		if err := f.acquire(ctx); err != nil {
			return err
		}
		r, err := f.client.GetTickers(ctx, f.cfg.Category)
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return bybit.ParseTickers(resp, time.Now()), nil
}

// Trades fetches recent public trades for each symbol, concurrently up to the
// given bound, every request passing the gate first. The returned map holds
// one Result per requested symbol.
func (f *Fetcher) Trades(ctx context.Context, symbols []string, concurrency int) map[string]Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]Result, len(symbols))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for _, symbol := range symbols {
		wg.Add(1)
		sem <- struct{}{}

		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			trades, err := f.fetchTrades(ctx, symbol)

			resultsMu.Lock()
			results[symbol] = Result{Trades: trades, Err: err}
			resultsMu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}

func (f *Fetcher) fetchTrades(ctx context.Context, symbol string) ([]marketstore.Trade, error) {
	var resp *bybit.TradeListResponse
	err := f.withRetry(ctx, "recent trades", func(ctx context.Context) error {
		if err := f.acquire(ctx); err != nil {
			return err
		}
		r, err := f.client.GetRecentTrades(ctx, f.cfg.Category, symbol, f.cfg.TradeLimit)
		resp = r
		return err
	})
	if err != nil {
		f.recordFailure(symbol)
		return nil, err
	}
	f.recordSuccess(symbol)
	return bybit.ParseTrades(resp), nil
}

// acquire passes the gate under the configured caller deadline.
func (f *Fetcher) acquire(ctx context.Context) error {
	if f.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.AcquireTimeout)
		defer cancel()
	}
	return f.gate.Acquire(ctx)
}

// withRetry runs fn with bounded exponential backoff. Malformed payloads and
// gate timeouts are not retried: the symbol is simply skipped this cycle.
func (f *Fetcher) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	delay := f.cfg.RetryBaseDelay

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == f.cfg.MaxAttempts {
			break
		}
		f.logger.Debug("fetch attempt failed, retrying",
			zap.String("op", op), zap.Int("attempt", attempt),
			zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, bybit.ErrMalformedPayload),
		errors.Is(err, ratelimit.ErrAcquireTimeout),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (f *Fetcher) recordFailure(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[symbol]++
	if f.cfg.DegradedAfter > 0 && f.failures[symbol] == f.cfg.DegradedAfter {
		f.logger.Warn("symbol degraded",
			zap.String("symbol", symbol),
			zap.Int("consecutive_cycles", f.failures[symbol]))
	}
}

func (f *Fetcher) recordSuccess(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, symbol)
}

// Degraded lists symbols whose trade fetches failed for at least the
// configured number of consecutive cycles, sorted for stable output.
func (f *Fetcher) Degraded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for symbol, n := range f.failures {
		if f.cfg.DegradedAfter > 0 && n >= f.cfg.DegradedAfter {
			out = append(out, symbol)
		}
	}
	sort.Strings(out)
	return out
}
