package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/database"

	"go.uber.org/zap"
)

type Config struct {
	Port   string
	DB     DB
	JWT    JWT
	Ledger Ledger
	Kafka  Kafka
}

type DB struct {
	database.Config
}

type JWT struct {
	Secret   string
	Issuer   string
	Audience string
}

// Ledger — настройки ядра склада.
type Ledger struct {
	MaxCASRetries         int
	DefaultReservationTTL time.Duration
	DurableAudit          bool
	SweepInterval         time.Duration
}

type Kafka struct {
	Brokers []string // пусто — зеркало аудита выключено
	Topic   string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", log),
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		JWT: JWT{
			Secret:   getEnv("JWT_SECRET", log),
			Issuer:   getEnv("JWT_ISSUER", log),
			Audience: getEnv("JWT_AUDIENCE", log),
		},
		Ledger: Ledger{
			MaxCASRetries:         atoiDefault(os.Getenv("MAX_CAS_RETRIES"), 5),
			DefaultReservationTTL: durationDefault(os.Getenv("RESERVATION_TTL"), 15*time.Minute),
			DurableAudit:          os.Getenv("DURABLE_AUDIT") == "true",
			SweepInterval:         durationDefault(os.Getenv("SWEEP_INTERVAL"), time.Minute),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envDefault("KAFKA_AUDIT_TOPIC", "inventory.audit"),
		},
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func envDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func durationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
