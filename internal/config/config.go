package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all runtime settings, read from the environment once at
// startup. The setup token is the out-of-band secret gating administrator
// bootstrap; it is never an administrator's own bearer token.
type Config struct {
	HTTPAddr string
	GRPCAddr string
	PGDSN    string

	AuthSecret string
	SetupToken string

	ActorSessionTTL time.Duration
	AdminSessionTTL time.Duration

	LoginMaxAttempts int
	LoginWindow      time.Duration
	SetupMaxAttempts int
	SetupWindow      time.Duration

	RateBurst  int
	RatePerSec int
}

// Load reads configuration from MOTORDESK_* environment variables.
func Load() Config {
	return Config{
		HTTPAddr: getenv("MOTORDESK_HTTP_ADDR", ":8080"),
		GRPCAddr: getenv("MOTORDESK_GRPC_ADDR", ":9090"),
		PGDSN:    getenv("MOTORDESK_PG_DSN", ""),

		AuthSecret: getenv("MOTORDESK_AUTH_SECRET", ""),
		SetupToken: getenv("MOTORDESK_SETUP_TOKEN", ""),

		ActorSessionTTL: getenvDuration("MOTORDESK_ACTOR_SESSION_TTL", 12*time.Hour),
		AdminSessionTTL: getenvDuration("MOTORDESK_ADMIN_SESSION_TTL", 8*time.Hour),

		LoginMaxAttempts: getenvInt("MOTORDESK_LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getenvDuration("MOTORDESK_LOGIN_WINDOW", 15*time.Minute),
		SetupMaxAttempts: getenvInt("MOTORDESK_SETUP_MAX_ATTEMPTS", 3),
		SetupWindow:      getenvDuration("MOTORDESK_SETUP_WINDOW", 30*time.Minute),

		RateBurst:  getenvInt("MOTORDESK_RATE_BURST", 20),
		RatePerSec: getenvInt("MOTORDESK_RATE_PER_SEC", 10),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
