package universe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"perpscreener/internal/screener/ratelimit"
	"perpscreener/pkg/bybit"

	"go.uber.org/zap"
)

// Loader maintains the set of tradable USDT-quoted contracts. The engine
// intersects ticker snapshots against it so delisted or non-USDT contracts
// never enter detection.
type Loader struct {
	client   *bybit.RESTClient
	gate     *ratelimit.Limiter
	category bybit.Category
	logger   *zap.Logger

	mu      sync.RWMutex
	symbols map[string]struct{}
}

func New(client *bybit.RESTClient, gate *ratelimit.Limiter, category bybit.Category, logger *zap.Logger) *Loader {
	return &Loader{
		client:   client,
		gate:     gate,
		category: category,
		logger:   logger,
		symbols:  make(map[string]struct{}),
	}
}

// Refresh reloads the universe from the instruments endpoint, keeping only
// USDT-quoted contracts in Trading status.
func (l *Loader) Refresh(ctx context.Context) error {
	if err := l.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("universe refresh: %w", err)
	}

	resp, err := l.client.GetInstruments(ctx, l.category)
	if err != nil {
		return fmt.Errorf("universe refresh: %w", err)
	}

	next := make(map[string]struct{}, len(resp.List))
	for _, inst := range resp.List {
		if inst.QuoteCoin == "USDT" && inst.Status == "Trading" {
			next[inst.Symbol] = struct{}{}
		}
	}

	l.mu.Lock()
	l.symbols = next
	l.mu.Unlock()

	l.logger.Info("symbol universe refreshed", zap.Int("count", len(next)))
	return nil
}

// Contains reports whether the symbol is tradable. An empty universe (initial
// load failed) admits everything rather than blinding the screener.
func (l *Loader) Contains(symbol string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.symbols) == 0 {
		return true
	}
	_, ok := l.symbols[symbol]
	return ok
}

// Size returns the number of tradable symbols currently known.
func (l *Loader) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.symbols)
}

// Start refreshes the universe once at the next UTC midnight and then every
// 24 hours, until ctx ends. Instrument metadata rarely changes intraday, so
// a daily cadence is enough.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		now := time.Now().UTC()
		nextMidnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(nextMidnight)):
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			if err := l.Refresh(ctx); err != nil {
				l.logger.Warn("scheduled universe refresh failed", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
