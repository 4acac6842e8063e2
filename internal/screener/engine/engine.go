package engine

import (
	"context"
	"errors"
	"time"

	"perpscreener/internal/screener/alert"
	"perpscreener/internal/screener/detect"
	"perpscreener/internal/screener/fetcher"
	"perpscreener/internal/screener/marketstore"
	"perpscreener/internal/screener/stream"
	"perpscreener/internal/screener/universe"

	"go.uber.org/zap"
)

// Config holds the cycle policy.
type Config struct {
	UpdateInterval   time.Duration
	TopCoinsLimit    int     // Rows in the published top-volume ranking
	MonitoredSymbols int     // Symbols whose trades are fetched each cycle (top by volume)
	FetchConcurrency int     // Concurrent trade fetches within a cycle
	MinSignalScore   float64 // Alerts scoring below this are dropped; 0 disables the filter

	// Score multiplier when a symbol fired on more than one alert kind
	// recently; 0 disables the bonus
	CombinedSignalBonus float64
}

// Deps are the collaborators the engine coordinates. Universe and LiveTrades
// are optional.
type Deps struct {
	Fetcher    *fetcher.Fetcher
	Store      *marketstore.Store
	Detector   *detect.Detector
	Deduper    *alert.Deduper
	Ranker     *alert.Ranker
	Universe   *universe.Loader
	LiveTrades *stream.TradeBuffer
	Logger     *zap.Logger
	OnReport   func(Report)
}

// Report is the immutable per-cycle output handed to the display consumer.
type Report struct {
	At        time.Time
	TopVolume []detect.TopVolumeEntry
	Alerts    []alert.Alert
	Degraded  []string
}

// Engine drives the poll-detect-publish loop. One cycle at a time: if a
// cycle overruns the interval the next one starts immediately rather than
// concurrently.
type Engine struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Engine {
	return &Engine{cfg: cfg, deps: deps}
}

// Run executes cycles at the configured interval until ctx is cancelled.
// Shutdown aborts the inter-cycle sleep and any in-flight fetches.
func (e *Engine) Run(ctx context.Context) error {
	log := e.deps.Logger
	log.Info("screener engine starting",
		zap.Duration("interval", e.cfg.UpdateInterval),
		zap.Int("top_coins", e.cfg.TopCoinsLimit))

	for {
		start := time.Now()
		e.runCycle(ctx)

		if ctx.Err() != nil {
			log.Info("screener engine stopped")
			return nil
		}

		if wait := e.cfg.UpdateInterval - time.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				log.Info("screener engine stopped")
				return nil
			case <-time.After(wait):
			}
		}
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	log := e.deps.Logger

	snaps, err := e.deps.Fetcher.Tickers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("ticker fetch failed, skipping cycle", zap.Error(err))
		}
		return
	}
	if e.deps.Universe != nil {
		snaps = e.filterTradable(snaps)
	}

	ranking := detect.TopVolume(snaps, e.cfg.TopCoinsLimit)
	monitored := monitoredSymbols(snaps, e.cfg.MonitoredSymbols)
	results := e.deps.Fetcher.Trades(ctx, monitored, e.cfg.FetchConcurrency)

	var live map[string][]marketstore.Trade
	if e.deps.LiveTrades != nil {
		live = e.deps.LiveTrades.Drain()
	}

	var alerts []alert.Alert
	updated := 0
	for _, snap := range snaps {
		var trades []marketstore.Trade
		if r, ok := results[snap.Symbol]; ok {
			if r.Err != nil {
				log.Debug("symbol skipped this cycle",
					zap.String("symbol", snap.Symbol), zap.Error(r.Err))
			} else {
				trades = r.Trades
			}
		}
		trades = append(trades, live[snap.Symbol]...)

		fresh, err := e.deps.Store.Update(snap.Symbol, snap, trades)
		if err != nil {
			if errors.Is(err, marketstore.ErrStaleSnapshot) {
				log.Debug("stale snapshot ignored", zap.String("symbol", snap.Symbol))
			}
			continue
		}
		updated++

		window := e.deps.Store.WindowFor(snap.Symbol)
		for _, a := range e.deps.Detector.Detect(snap, fresh, window) {
			// The cooldown stamp is recorded before score filtering, so a
			// low-scoring alert still starts its cooldown
			if !e.deps.Deduper.Admit(a) {
				continue
			}
			if e.cfg.CombinedSignalBonus > 0 && e.deps.Deduper.CombinedSignal(a.Symbol, a.Time) {
				a.Score *= e.cfg.CombinedSignalBonus
			}
			if e.cfg.MinSignalScore > 0 && a.Score < e.cfg.MinSignalScore {
				continue
			}
			alerts = append(alerts, a)
		}
	}

	report := Report{
		At:        time.Now(),
		TopVolume: ranking,
		Alerts:    e.deps.Ranker.Rank(alerts),
		Degraded:  e.deps.Fetcher.Degraded(),
	}
	if e.deps.OnReport != nil {
		e.deps.OnReport(report)
	}

	log.Info("cycle complete",
		zap.Int("symbols", updated),
		zap.Int("alerts", len(report.Alerts)),
		zap.Int("degraded", len(report.Degraded)))
}

func (e *Engine) filterTradable(snaps []marketstore.Snapshot) []marketstore.Snapshot {
	kept := snaps[:0]
	for _, s := range snaps {
		if e.deps.Universe.Contains(s.Symbol) {
			kept = append(kept, s)
		}
	}
	return kept
}

// monitoredSymbols picks the top-volume symbols whose trades are worth
// fetching this cycle.
func monitoredSymbols(snaps []marketstore.Snapshot, limit int) []string {
	top := detect.TopVolume(snaps, limit)
	out := make([]string, len(top))
	for i, e := range top {
		out[i] = e.Symbol
	}
	return out
}
