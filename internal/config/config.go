package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr   string
	DBDSN      string
	MongoURI   string
	RedisAddr  string
	RabbitURL  string
	JWTSecret  string
	GatewayURL string
	GatewayKey string
	// GatewaySecret keys the HMAC over order_id|payment_id.
	GatewaySecret  string
	PendingTTL     time.Duration
	SweepInterval  time.Duration
	IdempotencyTTL time.Duration
	// Fixed-window request budgets, per minute.
	RateLimitUser int
	RateLimitIP   int
	OTLPEndpoint  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	pendingTTL := durationEnv("PENDING_TTL", 15*time.Minute)
	sweep := durationEnv("SWEEP_INTERVAL", time.Minute)
	idempTTL := durationEnv("IDEMPOTENCY_TTL", time.Hour)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		HTTPAddr:       addr,
		DBDSN:          os.Getenv("DB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GatewayURL:     os.Getenv("PAYMENT_GATEWAY_URL"),
		GatewayKey:     os.Getenv("PAYMENT_GATEWAY_KEY"),
		GatewaySecret:  os.Getenv("PAYMENT_GATEWAY_SECRET"),
		PendingTTL:     pendingTTL,
		SweepInterval:  sweep,
		IdempotencyTTL: idempTTL,
		RateLimitUser:  intEnv("RATE_LIMIT_USER_PER_MIN", 30),
		RateLimitIP:    intEnv("RATE_LIMIT_IP_PER_MIN", 100),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func intEnv(key string, def int) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	if n <= 0 {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d == 0 {
		return def
	}
	return d
}
