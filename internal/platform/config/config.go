package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"folio/internal/registry/models"
)

// Server captures process-level configuration. Everything comes from the
// environment so main stays lean.
type Server struct {
	Addr       string
	RegistryID string

	// InitialOwner and PayoutAddress seed a fresh deployment. Once a state
	// database exists its persisted values win.
	InitialOwner  models.Address
	PayoutAddress models.Address
	Pricing       models.Pricing

	// StateDBPath selects the bbolt state store; empty keeps state in memory.
	StateDBPath string

	JWTSigningKey string

	Redis RedisConfig

	// PostgresDSN enables the outbox event store; empty keeps events in
	// memory. KafkaBrokers additionally enables the outbox worker.
	PostgresDSN  string
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds the optional name-cache connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("FOLIO_ADDR", ":8080"),
		RegistryID:    envOr("FOLIO_REGISTRY_ID", "folio-dev"),
		InitialOwner:  models.Address(os.Getenv("FOLIO_OWNER")),
		PayoutAddress: models.Address(os.Getenv("FOLIO_PAYOUT_ADDRESS")),
		Pricing: models.Pricing{
			MonthlyCost:            models.Amount(envUint("FOLIO_MONTHLY_COST", 5000)),
			TwelveMonthDiscountPct: envUint("FOLIO_TWELVE_MONTH_DISCOUNT", 20),
			ShortNameThreshold:     int(envUint("FOLIO_SHORT_NAME_THRESHOLD", 6)),
			ShortNameMultiplier:    envUint("FOLIO_SHORT_NAME_MULTIPLIER", 10),
		},
		StateDBPath:   os.Getenv("FOLIO_STATE_DB"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("FOLIO_REDIS_URL"),
			PoolSize:     int(envUint("FOLIO_REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envUint("FOLIO_REDIS_MIN_IDLE", 2)),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     envDuration("FOLIO_NAME_CACHE_TTL", 5*time.Minute),
		},
		PostgresDSN: os.Getenv("FOLIO_POSTGRES_DSN"),
		KafkaTopic:  envOr("FOLIO_KAFKA_TOPIC", "folio.events"),
	}
	if brokers := os.Getenv("FOLIO_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
