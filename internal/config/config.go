package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Tiering   TieringConfig   `mapstructure:"tiering"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	// Driver selects the storage backend: "postgres" or "sqlite".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TrackerSpec  string `mapstructure:"tracker_spec"`
	CacheSweep   string `mapstructure:"cache_sweep"`
	StatsRebuild string `mapstructure:"stats_rebuild"`
}

type ProvidersConfig struct {
	Birdeye     BirdeyeConfig     `mapstructure:"birdeye"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	RugCheck    RugCheckConfig    `mapstructure:"rugcheck"`
}

type BirdeyeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DexScreenerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RugCheckConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	JitterBound   time.Duration `mapstructure:"jitter_bound"`
	MaxRetryAfter time.Duration `mapstructure:"max_retry_after"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type TrackerConfig struct {
	// Mode is "sequential" or "pool".
	Mode            string        `mapstructure:"mode"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	RequestPause    time.Duration `mapstructure:"request_pause"`
	MinAgeHours     float64       `mapstructure:"min_age_hours"`
	BatchLimit      int           `mapstructure:"batch_limit"`
	DeadLetterPath  string        `mapstructure:"dead_letter_path"`
	DeadLetterLimit int           `mapstructure:"dead_letter_limit"`
}

type TieringConfig struct {
	// HitThresholdPct is the max-gain percentage a call must reach to
	// count toward a source's hit rate.
	HitThresholdPct float64 `mapstructure:"hit_threshold_pct"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "memetracker.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.tracker_spec", "@every 15m")
	v.SetDefault("cron.cache_sweep", "@every 5m")
	v.SetDefault("cron.stats_rebuild", "@every 6h")

	v.SetDefault("providers.birdeye.base_url", "https://public-api.birdeye.so")
	v.SetDefault("providers.birdeye.timeout", "10s")
	v.SetDefault("providers.dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("providers.dexscreener.timeout", "10s")
	v.SetDefault("providers.rugcheck.base_url", "https://api.rugcheck.xyz")
	v.SetDefault("providers.rugcheck.timeout", "10s")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "500ms")
	v.SetDefault("retry.max_delay", "8s")
	v.SetDefault("retry.jitter_bound", "250ms")
	v.SetDefault("retry.max_retry_after", "30s")

	v.SetDefault("cache.ttl", "45s")

	v.SetDefault("tracker.mode", "sequential")
	v.SetDefault("tracker.max_concurrency", 4)
	v.SetDefault("tracker.request_pause", "1s")
	v.SetDefault("tracker.min_age_hours", 0)
	v.SetDefault("tracker.batch_limit", 0)
	v.SetDefault("tracker.dead_letter_path", "tracker_dead_letter.jsonl")
	v.SetDefault("tracker.dead_letter_limit", 500)

	v.SetDefault("tiering.hit_threshold_pct", 50.0)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
