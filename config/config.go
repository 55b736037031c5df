package config

import (
	"log"

	"github.com/spf13/viper"
)

type WebServerConfig struct {
	Port            string `mapstructure:"port"`
	IP              string `mapstructure:"ip"`
	Scheme          string `mapstructure:"scheme"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Address          string `mapstructure:"address"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	PoolSize         int    `mapstructure:"pool_size"`
	MinIdleConns     int    `mapstructure:"min_idle_conns"`
	OperationTimeout int    `mapstructure:"operation_timeout"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type TrackersConfig struct {
	ListPath           string `mapstructure:"list_path"`
	MaxBufferedMatches int    `mapstructure:"max_buffered_matches"`
}

type AdminConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKeyHash string `mapstructure:"api_key_hash"` // bcrypt hash of the admin API key
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	FromName     string `mapstructure:"from_name"`
	DigestTo     string `mapstructure:"digest_to"`
}

// EngineConfig seeds the persisted store's settings on first start.
// Once the store document exists, the document's own settings win and
// these values are never re-applied.
type EngineConfig struct {
	SnapshotIntervalMinutes int   `mapstructure:"snapshot_interval_minutes"`
	DefaultThresholdKB      int64 `mapstructure:"default_threshold_kb"`
	HistoryRetentionDays    int   `mapstructure:"history_retention_days"`
	DailyReportEnabled      bool  `mapstructure:"daily_report_enabled"`
	DailyReportHourLocal    int   `mapstructure:"daily_report_hour_local"`
	DailyReportTopN         int   `mapstructure:"daily_report_top_n"`
}

type Config struct {
	WebServer WebServerConfig `mapstructure:"webserver"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Trackers  TrackersConfig  `mapstructure:"trackers"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Email     EmailConfig     `mapstructure:"email"`
	Engine    EngineConfig    `mapstructure:"engine"`
}

func LoadConfig() (Config, error) {
	var config Config

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Enable environment variable overrides
	viper.SetEnvPrefix("SITEGUARDIAN")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Error reading config file: %v", err)
		return config, err
	}

	if err := viper.Unmarshal(&config); err != nil {
		log.Printf("Unable to decode into struct: %v", err)
		return config, err
	}

	log.Println("Configuration loaded successfully")
	return config, nil
}

func MustLoadConfig() Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return config
}

func setDefaults() {
	// WebServer defaults
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.ip", "127.0.0.1")
	viper.SetDefault("webserver.scheme", "http")
	viper.SetDefault("webserver.read_timeout", 15)
	viper.SetDefault("webserver.write_timeout", 15)
	viper.SetDefault("webserver.shutdown_timeout", 30)

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.operation_timeout", 5)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size_mb", 50)
	viper.SetDefault("cache.ttl_seconds", 10)
	viper.SetDefault("cache.counter_size", 100000)

	// RateLimit defaults
	viper.SetDefault("ratelimit.requests_per_second", 50.0)
	viper.SetDefault("ratelimit.burst", 100)

	// Trackers defaults
	viper.SetDefault("trackers.list_path", "trackers.txt")
	viper.SetDefault("trackers.max_buffered_matches", 10000)

	// Admin defaults
	viper.SetDefault("admin.enabled", false)
	viper.SetDefault("admin.api_key_hash", "")

	// Email defaults
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.smtp_host", "")
	viper.SetDefault("email.smtp_port", "587")
	viper.SetDefault("email.smtp_username", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_email", "")
	viper.SetDefault("email.from_name", "SiteGuardian")
	viper.SetDefault("email.digest_to", "")

	// Engine defaults (seed values for a fresh store document)
	viper.SetDefault("engine.snapshot_interval_minutes", 30)
	viper.SetDefault("engine.default_threshold_kb", 256)
	viper.SetDefault("engine.history_retention_days", 30)
	viper.SetDefault("engine.daily_report_enabled", false)
	viper.SetDefault("engine.daily_report_hour_local", 8)
	viper.SetDefault("engine.daily_report_top_n", 5)
}
