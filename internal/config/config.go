package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Booking   BookingConfig
	Custody   CustodyConfig
	RateLimit RateLimitConfig
	Pricing   PricingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	// MaxConns and MinConns size the pool. Zero keeps the pgx default.
	MaxConns int32
	MinConns int32
}

// DSN returns the connection string for pgx.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

type BookingConfig struct {
	RefundCutoff time.Duration
}

type CustodyConfig struct {
	// EscalateAfter is how long past end time a booking may stay in custody
	// before it is reported. Zero disables the sweep.
	EscalateAfter time.Duration
	SweepSchedule string
}

type RateLimitConfig struct {
	ScanPerMinute    int
	PreviewPerMinute int
}

// PricingConfig overrides pricing defaults. Zero values keep the default.
type PricingConfig struct {
	StorageBaseRate float64
	DecayConstant   float64
	StorageMinPrice float64
	ParkingMinPrice float64
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := getInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: getEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := getInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser, err := mustEnv("POSTGRES_USER")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresPassword, err := mustEnv("POSTGRES_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresDB, err := mustEnv("POSTGRES_DB")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maxConns, err := getPoolSize("POSTGRES_MAX_CONNS")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	minConns, err := getPoolSize("POSTGRES_MIN_CONNS")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: maxConns,
		MinConns: minConns,
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refundCutoff, err := getDuration("REFUND_CUTOFF", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	escalateAfter, err := getDuration("CUSTODY_ESCALATE_AFTER", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	scanLimit, err := getInt("RATE_LIMIT_SCAN", 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	previewLimit, err := getInt("RATE_LIMIT_PREVIEW", 60)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var pricingCfg PricingConfig
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"PRICING_STORAGE_BASE_RATE", &pricingCfg.StorageBaseRate},
		{"PRICING_DECAY_CONSTANT", &pricingCfg.DecayConstant},
		{"PRICING_STORAGE_MIN_PRICE", &pricingCfg.StorageMinPrice},
		{"PRICING_PARKING_MIN_PRICE", &pricingCfg.ParkingMinPrice},
	} {
		if *f.dst, err = getFloat(f.key, 0); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Auth:     AuthConfig{JWTSecret: jwtSecret},
		Booking:  BookingConfig{RefundCutoff: refundCutoff},
		Custody: CustodyConfig{
			EscalateAfter: escalateAfter,
			SweepSchedule: getEnv("CUSTODY_SWEEP_SCHEDULE", "@every 15m"),
		},
		RateLimit: RateLimitConfig{
			ScanPerMinute:    scanLimit,
			PreviewPerMinute: previewLimit,
		},
		Pricing: pricingCfg,
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return v, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getPoolSize(key string) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return int32(n), nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
