package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// BaseCurrency is the currency every journal posts in.
	BaseCurrency string

	// TxnMaxRetries bounds coordinator retries on serialization conflicts;
	// TxnRetryBackoff is the initial backoff, doubled per attempt.
	TxnMaxRetries   int
	TxnRetryBackoff time.Duration

	// LockTimeout is applied per transaction via SET LOCAL lock_timeout.
	LockTimeout time.Duration

	// QtyPrecision and AmountPrecision are the decimal places quantities and
	// money are rounded to at the service boundary.
	QtyPrecision    int32
	AmountPrecision int32

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string
}

// LoadConfig loads configuration from environment variables, reading a .env
// file first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("BASE_CURRENCY", "INR")
	v.SetDefault("TXN_MAX_RETRIES", 3)
	v.SetDefault("TXN_RETRY_BACKOFF", "50ms")
	v.SetDefault("LOCK_TIMEOUT", "3s")
	v.SetDefault("QTY_PRECISION", 3)
	v.SetDefault("AMOUNT_PRECISION", 2)
	v.SetDefault("RATE_LIMIT", "300-M")

	cfg := &Config{
		DatabaseURL:     v.GetString("PGSQL_URL"),
		Port:            v.GetString("PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
		BaseCurrency:    v.GetString("BASE_CURRENCY"),
		TxnMaxRetries:   v.GetInt("TXN_MAX_RETRIES"),
		TxnRetryBackoff: v.GetDuration("TXN_RETRY_BACKOFF"),
		LockTimeout:     v.GetDuration("LOCK_TIMEOUT"),
		QtyPrecision:    v.GetInt32("QTY_PRECISION"),
		AmountPrecision: v.GetInt32("AMOUNT_PRECISION"),
		RateLimit:       v.GetString("RATE_LIMIT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL is required")
	}
	if cfg.TxnMaxRetries < 1 {
		cfg.TxnMaxRetries = 1
	}
	return cfg, nil
}
