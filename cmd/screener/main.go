package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"perpscreener/config"
	"perpscreener/internal/screener/alert"
	"perpscreener/internal/screener/detect"
	"perpscreener/internal/screener/engine"
	"perpscreener/internal/screener/fetcher"
	"perpscreener/internal/screener/marketstore"
	"perpscreener/internal/screener/ratelimit"
	"perpscreener/internal/screener/stream"
	"perpscreener/internal/screener/universe"
	"perpscreener/logger"
	"perpscreener/pkg/bybit"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("screener failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	category, err := bybit.ParseCategory(cfg.Screener.Category)
	if err != nil {
		return err
	}

	gate := ratelimit.New(
		cfg.RateLimit.MaxRequestsPerWindow,
		cfg.RateLimit.Window,
		cfg.RateLimit.SafetyFactor,
	)
	log.Info("rate limit gate ready",
		zap.Int("budget", gate.Budget()),
		zap.Duration("window", cfg.RateLimit.Window))

	restClient := bybit.NewRESTClient(bybit.BaseURL(cfg.Bybit.Testnet), cfg.Bybit.REST.Timeout)
	restClient.SetCredentials(bybit.Credentials{
		APIKey:    cfg.Bybit.Credentials.APIKey,
		APISecret: cfg.Bybit.Credentials.APISecret,
	})

	fetch := fetcher.New(restClient, gate, fetcher.Config{
		Category:       category,
		TradeLimit:     cfg.Screener.TradeFetchLimit,
		MaxAttempts:    cfg.Screener.RetryMaxAttempts,
		RetryBaseDelay: cfg.Screener.RetryBaseDelay,
		AcquireTimeout: cfg.Screener.AcquireTimeout,
		DegradedAfter:  cfg.Screener.DegradedAfterCycles,
	}, log)

	// Load the tradable contract universe up front; refresh daily after that
	uni := universe.New(restClient, gate, category, log)
	if err := uni.Refresh(ctx); err != nil {
		log.Warn("initial universe load failed, screening all symbols", zap.Error(err))
	}
	uni.Start(ctx)

	// Optional live trade feed between polls
	var liveTrades *stream.TradeBuffer
	if cfg.Bybit.WS.Enabled {
		liveTrades = stream.NewTradeBuffer(cfg.Bybit.WS.BufferSize)
		if err := startStream(ctx, cfg, category, fetch, liveTrades, log); err != nil {
			log.Warn("live trade stream unavailable", zap.Error(err))
			liveTrades = nil
		}
	}

	renderer := newRenderer(os.Stdout, cfg.Display.RefreshRate)

	eng := engine.New(engine.Config{
		UpdateInterval:      cfg.Screener.UpdateInterval,
		TopCoinsLimit:       cfg.Screener.TopCoinsLimit,
		MonitoredSymbols:    cfg.Screener.MonitoredSymbols,
		FetchConcurrency:    cfg.Screener.FetchConcurrency,
		MinSignalScore:      cfg.Screener.MinSignalScore,
		CombinedSignalBonus: cfg.Screener.CombinedSignalBonus,
	}, engine.Deps{
		Fetcher: fetch,
		Store:   marketstore.New(cfg.Screener.Window),
		Detector: detect.New(detect.Config{
			BigTradeThresholdUSD:            cfg.Screener.BigTradeThresholdUSD,
			PriceChangeThresholdPct:         cfg.Screener.PriceChangeThresholdPct,
			VolumeSpikeThresholdPct:         cfg.Screener.VolumeSpikeThresholdPct,
			TrendConfirmationPeriods:        cfg.Screener.TrendConfirmationPeriods,
			VolumePriceCorrelationThreshold: cfg.Screener.VolumePriceCorrelationThreshold,
		}),
		Deduper:    alert.NewDeduper(cfg.Screener.AlertCooldown),
		Ranker:     alert.NewRanker(),
		Universe:   uni,
		LiveTrades: liveTrades,
		Logger:     log,
		OnReport:   renderer.Render,
	})

	return eng.Run(ctx)
}

// startStream subscribes to publicTrade topics for the current top-volume
// symbols and feeds parsed trades into the buffer.
func startStream(ctx context.Context, cfg *config.Config, category bybit.Category,
	fetch *fetcher.Fetcher, buf *stream.TradeBuffer, log *zap.Logger) error {

	// One ticker fetch up front to learn which symbols are worth streaming
	initCtx, cancel := context.WithTimeout(ctx, cfg.Bybit.REST.Timeout)
	defer cancel()
	snaps, err := fetch.Tickers(initCtx)
	if err != nil {
		return err
	}

	var topics []string
	for _, e := range detect.TopVolume(snaps, cfg.Screener.MonitoredSymbols) {
		topics = append(topics, "publicTrade."+e.Symbol)
	}

	wsClient := bybit.NewWSClient(
		bybit.StreamURL(cfg.Bybit.Testnet, category),
		topics,
		cfg.Bybit.WS.PingInterval,
		log,
	)
	wsClient.SetMessageHandler(stream.MakeMessageHandler(log, buf))

	if err := wsClient.Connect(); err != nil {
		return err
	}
	go wsClient.Run(ctx)
	go func() {
		<-ctx.Done()
		wsClient.Close()
	}()
	return nil
}
