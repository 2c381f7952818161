package config

import (
	"os"
	"strconv"
	"time"

	"cinebook/internal/cache"
	"cinebook/internal/database"
	"cinebook/internal/messaging"

	"github.com/joho/godotenv"
)

// Rules holds the business knobs of the booking core.
type Rules struct {
	HoldTTL            time.Duration
	ExtensionCap       time.Duration
	CancellationCutoff time.Duration
	SweepInterval      time.Duration
}

// Config is the full application configuration.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Rules Rules

	Database database.Config
	Cache    cache.Config
	NATS     messaging.Config
}

// Load reads configuration from the environment, consulting a .env file if
// one is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Rules: Rules{
			HoldTTL:            time.Duration(getEnvInt("HOLD_TTL_MIN", 5)) * time.Minute,
			ExtensionCap:       time.Duration(getEnvInt("HOLD_EXTENSION_CAP_MIN", 30)) * time.Minute,
			CancellationCutoff: time.Duration(getEnvInt("CANCELLATION_CUTOFF_HOURS", 2)) * time.Hour,
			SweepInterval:      time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 30)) * time.Second,
		},

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "cinebook"),
			Password:           getEnv("DB_PASSWORD", "cinebook"),
			DBName:             getEnv("DB_NAME", "cinebook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Cache: cache.Config{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			SeatMapTTL: time.Duration(
				getEnvInt("SEATMAP_CACHE_TTL_SEC", 10)) * time.Second,
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "cinebook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "cinebook-api"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
