package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch",
}

var defaultKafka = Kafka{
	GroupID:            "service-dispatch",
	OrdersTopic:        "orders.events",
	NotificationsTopic: "notifications",
}

var defaultDispatch = Dispatch{
	RequestTTL:       15 * time.Minute,
	OperationTimeout: 3 * time.Second,
	ExpirySweep:      "@every 1m",
}

var defaultTracking = Tracking{
	LiveInterval:    2 * time.Second,
	HistoryInterval: 10 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Port:      defaultPort,
		DB:        defaultDB,
		Kafka:     defaultKafka,
		Auth:      Auth{JWTSecret: "dev-secret"},
		Dispatch:  defaultDispatch,
		Tracking:  defaultTracking,
		RateLimit: defaultRateLimit,
		Ops:       Ops{Addr: "127.0.0.1:6060"},
		Log:       Log{Backend: "slog", Level: "info"},
	}
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultTracking returns the default throttling intervals.
func DefaultTracking() Tracking {
	return defaultTracking
}
