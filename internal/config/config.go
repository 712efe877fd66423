// apps/go-server/internal/config/config.go
//
// Environment-driven configuration. main calls godotenv.Load() first, so
// values may come from a .env file in development.
//
// Environment variables (defaults in parentheses):
//   PORT (5175), LOG_LEVEL (info), DB_PATH (./data/app.db; "" = memory only),
//   JWT_SECRET (dev_secret_change_me), JWT_EXPIRES_DAYS (14),
//   COOKIE_NAME (connections_token), CLIENT_ORIGIN (http://localhost:5173),
//   NODE_ENV, DAILY_SALT (local_dev_salt), PUZZLES_FILE, REQUEST_TIMEOUT (10s).

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	LogLevel       string
	DBPath         string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool
	DailySalt      string
	PuzzlesFile    string
	RequestTimeout time.Duration
}

// Load reads the configuration from the environment.
func Load() Config {
	dbPath, ok := os.LookupEnv("DB_PATH")
	if !ok {
		dbPath = "./data/app.db"
	}
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBPath:         dbPath,
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "connections_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		PuzzlesFile:    os.Getenv("PUZZLES_FILE"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
