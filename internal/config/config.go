package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, loaded from environment variables.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	// WorldFile is the world catalogue a new session runs when the
	// create request names none.
	WorldFile string

	// LexiconConfig optionally points at a YAML tuning file for the
	// parser and resolver. Empty means stock tuning.
	LexiconConfig string

	// SessionTTL bounds how long an idle session snapshot survives in
	// storage.
	SessionTTL time.Duration

	// TickInterval drives background actor ticks in the console client.
	// Zero disables the timer; actors then move only between commands.
	TickInterval time.Duration

	TelemetryEnabled      bool
	TelemetryCollectInput bool
	TelemetryTransmit     bool
	TelemetryChannel      string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		WorldFile:     getEnv("WORLD_FILE", "great_underground.json"),
		LexiconConfig: getEnv("LEXICON_CONFIG", ""),

		SessionTTL:   getDuration("SESSION_TTL", time.Hour),
		TickInterval: getDuration("TICK_INTERVAL", 0),

		TelemetryEnabled:      getBool("TELEMETRY_ENABLED", true),
		TelemetryCollectInput: getBool("TELEMETRY_COLLECT_INPUT", true),
		TelemetryTransmit:     getBool("TELEMETRY_TRANSMIT", false),
		TelemetryChannel:      getEnv("TELEMETRY_CHANNEL", "telemetry"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
