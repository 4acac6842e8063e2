package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bybit     BybitConfig     `mapstructure:"bybit"`
	Screener  ScreenerConfig  `mapstructure:"screener"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Display   DisplayConfig   `mapstructure:"display"`
	Log       LogConfig       `mapstructure:"log"`
}

type BybitConfig struct {
	Testnet     bool              `mapstructure:"testnet"` // Use the test endpoint instead of mainnet
	REST        RESTConfig        `mapstructure:"rest"`
	WS          WSConfig          `mapstructure:"ws"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

type RESTConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	Enabled      bool          `mapstructure:"enabled"`       // Stream live trades between polls
	PingInterval time.Duration `mapstructure:"ping_interval"` // Keep-alive ping cadence
	BufferSize   int           `mapstructure:"buffer_size"`   // Buffered live trades per symbol
}

type ScreenerConfig struct {
	Category                 string        `mapstructure:"category"`        // V5 product category, "linear" for USDT perps
	TopCoinsLimit            int           `mapstructure:"top_coins_limit"` // Rows in the top-volume ranking
	MonitoredSymbols         int           `mapstructure:"monitored_symbols"`
	TradeFetchLimit          int           `mapstructure:"trade_fetch_limit"`
	FetchConcurrency         int           `mapstructure:"fetch_concurrency"`
	UpdateInterval           time.Duration `mapstructure:"update_interval"`
	Window                   time.Duration `mapstructure:"window"` // Rolling window span per symbol
	VolumeSpikeThresholdPct  float64       `mapstructure:"volume_spike_threshold_pct"`
	PriceChangeThresholdPct  float64       `mapstructure:"price_change_threshold_pct"`
	BigTradeThresholdUSD     float64       `mapstructure:"big_trade_threshold_usd"`
	AlertCooldown            time.Duration `mapstructure:"alert_cooldown"`
	TrendConfirmationPeriods int           `mapstructure:"trend_confirmation_periods"`
	MinSignalScore           float64       `mapstructure:"min_signal_score"`      // 0 disables score filtering
	CombinedSignalBonus      float64       `mapstructure:"combined_signal_bonus"` // Score multiplier for multi-kind symbols

	VolumePriceCorrelationThreshold float64 `mapstructure:"volume_price_correlation_threshold"`
	DegradedAfterCycles      int           `mapstructure:"degraded_after_cycles"`
	RetryMaxAttempts         int           `mapstructure:"retry_max_attempts"`
	RetryBaseDelay           time.Duration `mapstructure:"retry_base_delay"`
	AcquireTimeout           time.Duration `mapstructure:"acquire_timeout"` // Gate wait bound per request
}

type RateLimitConfig struct {
	MaxRequestsPerWindow int           `mapstructure:"max_requests_per_window"`
	Window               time.Duration `mapstructure:"window"`
	SafetyFactor         float64       `mapstructure:"safety_factor"`
}

type DisplayConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"` // Minimum time between console redraws
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper. It reads from
// config.yaml and overrides with environment variables (e.g.,
// SCREENER_UPDATE_INTERVAL). A missing or unparseable config file is fatal;
// it is the only fatal error class in the program.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "config"))
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		v.AddConfigPath("config")
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., BYBIT_WS_ENABLED)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Optional API credentials come from SSM in prod
	cfg.Bybit.Credentials.Resolve(cfg.Log.Environment)

	return &cfg
}

// setDefaults mirrors the original screener defaults so a sparse config file
// still yields a working setup.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bybit.testnet", false)
	v.SetDefault("bybit.rest.timeout", 10*time.Second)
	v.SetDefault("bybit.ws.enabled", false)
	v.SetDefault("bybit.ws.ping_interval", 20*time.Second)
	v.SetDefault("bybit.ws.buffer_size", 200)

	v.SetDefault("screener.category", "linear")
	v.SetDefault("screener.top_coins_limit", 20)
	v.SetDefault("screener.monitored_symbols", 20)
	v.SetDefault("screener.trade_fetch_limit", 100)
	v.SetDefault("screener.fetch_concurrency", 5)
	v.SetDefault("screener.update_interval", 5*time.Second)
	v.SetDefault("screener.window", 10*time.Minute)
	v.SetDefault("screener.volume_spike_threshold_pct", 5.0)
	v.SetDefault("screener.price_change_threshold_pct", 1.5)
	v.SetDefault("screener.big_trade_threshold_usd", 200000.0)
	v.SetDefault("screener.alert_cooldown", 10*time.Minute)
	v.SetDefault("screener.trend_confirmation_periods", 4)
	v.SetDefault("screener.min_signal_score", 0.0)
	v.SetDefault("screener.combined_signal_bonus", 2.5)
	v.SetDefault("screener.volume_price_correlation_threshold", 0.8)
	v.SetDefault("screener.degraded_after_cycles", 3)
	v.SetDefault("screener.retry_max_attempts", 3)
	v.SetDefault("screener.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("screener.acquire_timeout", 4*time.Second)

	v.SetDefault("ratelimit.max_requests_per_window", 600)
	v.SetDefault("ratelimit.window", 5*time.Second)
	v.SetDefault("ratelimit.safety_factor", 0.8)

	v.SetDefault("display.refresh_rate", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
