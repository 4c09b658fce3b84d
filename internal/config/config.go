package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	OpenData OpenDataConfig `mapstructure:"opendata"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Cron     CronConfig     `mapstructure:"cron"`
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
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig points at the backend shared by the durable queues and the
// open-data response cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type OpenDataConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AppToken       string        `mapstructure:"app_token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ComplaintLimit int           `mapstructure:"complaint_limit"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SyncConfig struct {
	LookbackDays     int `mapstructure:"lookback_days"`
	SweepConcurrency int `mapstructure:"sweep_concurrency"`
}

type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetry    int `mapstructure:"max_retry"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	NycDelta  string `mapstructure:"nyc_delta"`
	Hazard    string `mapstructure:"hazard"`
	Valuation string `mapstructure:"valuation"`
	Condition string `mapstructure:"condition"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PW")
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
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("opendata.base_url", "https://data.cityofnewyork.us/resource")
	v.SetDefault("opendata.app_token", "")
	v.SetDefault("opendata.timeout", "30s")
	v.SetDefault("opendata.complaint_limit", 1000)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("sync.lookback_days", 7)
	v.SetDefault("sync.sweep_concurrency", 4)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.max_retry", 3)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.nyc_delta", "0 2 * * *")
	v.SetDefault("cron.hazard", "0 3 * * 1")
	v.SetDefault("cron.valuation", "0 4 1 * *")
	v.SetDefault("cron.condition", "0 5 * * 2")

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
