package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds settings for both the API and the worker process.
type Config struct {
	Port      int
	Migrate   bool
	DB        DB
	Redis     Redis
	Kafka     Kafka
	Auth      Auth
	Dispatch  Dispatch
	Tracking  Tracking
	RateLimit RateLimit
	Ops       Ops
	Log       Log
}

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Redis stores the throttle backend address. Empty Addr keeps throttling in process.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Kafka stores broker settings. Empty Brokers disables both producer and consumer.
type Kafka struct {
	Brokers            []string
	GroupID            string
	OrdersTopic        string
	NotificationsTopic string
}

// Enabled reports whether any broker is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Auth stores bearer token settings.
type Auth struct {
	JWTSecret string
}

// Dispatch stores state machine settings.
type Dispatch struct {
	RequestTTL       time.Duration
	OperationTimeout time.Duration
	ExpirySweep      string
}

// Tracking stores location throttling intervals.
type Tracking struct {
	LiveInterval    time.Duration
	HistoryInterval time.Duration
}

// RateLimit stores HTTP token bucket settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Ops stores the metrics/pprof side server settings.
type Ops struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Log selects the logging backend and level.
type Log struct {
	Backend string
	Level   string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := Default()
	if err := fromEnv(&cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply the database schema on startup")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fromEnv(cfg *Config) error {
	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return err
	}
	cfg.Migrate, err = envBool("DB_MIGRATE", cfg.Migrate)
	if err != nil {
		return err
	}

	cfg.DB.Host = envString("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envString("POSTGRES_PORT", cfg.DB.Port)
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		return fmt.Errorf("invalid POSTGRES_PORT %q: %w", cfg.DB.Port, err)
	}
	cfg.DB.User = envString("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envString("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envString("POSTGRES_DB", cfg.DB.Name)

	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = envInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.GroupID = envString("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	cfg.Kafka.OrdersTopic = envString("KAFKA_ORDERS_TOPIC", cfg.Kafka.OrdersTopic)
	cfg.Kafka.NotificationsTopic = envString("KAFKA_NOTIFICATIONS_TOPIC", cfg.Kafka.NotificationsTopic)

	cfg.Auth.JWTSecret = envString("JWT_ACCESS_SECRET", cfg.Auth.JWTSecret)

	if cfg.Dispatch.RequestTTL, err = envDuration("DISPATCH_REQUEST_TTL", cfg.Dispatch.RequestTTL); err != nil {
		return err
	}
	if cfg.Dispatch.OperationTimeout, err = envDuration("DISPATCH_OPERATION_TIMEOUT", cfg.Dispatch.OperationTimeout); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("DISPATCH_EXPIRY_SWEEP"); ok {
		cfg.Dispatch.ExpirySweep = strings.TrimSpace(v)
	}

	if cfg.Tracking.LiveInterval, err = envDuration("TRACKING_LIVE_INTERVAL", cfg.Tracking.LiveInterval); err != nil {
		return err
	}
	if cfg.Tracking.HistoryInterval, err = envDuration("TRACKING_HISTORY_INTERVAL", cfg.Tracking.HistoryInterval); err != nil {
		return err
	}

	if cfg.RateLimit.Enabled, err = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled); err != nil {
		return err
	}
	if cfg.RateLimit.Rate, err = envFloat("RATE_LIMIT_RPS", cfg.RateLimit.Rate); err != nil {
		return err
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return err
	}
	if cfg.RateLimit.TTL, err = envDuration("RATE_LIMIT_TTL", cfg.RateLimit.TTL); err != nil {
		return err
	}
	if cfg.RateLimit.MaxBuckets, err = envInt("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets); err != nil {
		return err
	}

	if cfg.Ops.Enabled, err = envBool("OPS_ENABLED", cfg.Ops.Enabled); err != nil {
		return err
	}
	cfg.Ops.Addr = envString("OPS_ADDR", cfg.Ops.Addr)
	cfg.Ops.User = envString("OPS_USER", cfg.Ops.User)
	cfg.Ops.Pass = envString("OPS_PASS", cfg.Ops.Pass)

	cfg.Log.Backend = envString("LOG_BACKEND", cfg.Log.Backend)
	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Dispatch.RequestTTL <= 0 {
		return fmt.Errorf("invalid DISPATCH_REQUEST_TTL: %s", c.Dispatch.RequestTTL)
	}
	if c.Tracking.LiveInterval < 0 || c.Tracking.HistoryInterval < 0 {
		return fmt.Errorf("tracking intervals must not be negative")
	}
	switch c.Log.Backend {
	case "slog", "logrus":
	default:
		return fmt.Errorf("invalid LOG_BACKEND %q", c.Log.Backend)
	}
	if c.Kafka.Enabled() && c.Kafka.GroupID == "" {
		return fmt.Errorf("KAFKA_GROUP_ID is required when KAFKA_BROKERS is set")
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
