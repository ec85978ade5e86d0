package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Database struct {
	Driver   string // postgres, mysql or sqlite
	DSN      string // overrides the individual fields when set
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Config struct {
	Port                   string
	GinMode                string
	Database               Database
	JWTSecret              string
	RedisURL               string
	FirebaseBucket         string
	CORSOrigins            []string
	HandleCooldown         time.Duration
	PropagationConcurrency int
	VoteRateLimit          int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: bad duration for %s (%q), using %s", key, v, def)
		return def
	}
	return d
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: bad integer for %s (%q), using %d", key, v, def)
		return def
	}
	return n
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first by godotenv.
func Load() Config {
	origins := strings.Split(getenv("CORS_ORIGINS", "*"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "debug"),
		Database: Database{
			Driver:   getenv("DB_DRIVER", "postgres"),
			DSN:      os.Getenv("DB_DSN"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "board"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		JWTSecret:              getenv("JWT_SECRET", "dev-secret-change-me"),
		RedisURL:               os.Getenv("REDIS_URL"),
		FirebaseBucket:         os.Getenv("FIREBASE_BUCKET"),
		CORSOrigins:            origins,
		HandleCooldown:         getduration("HANDLE_COOLDOWN", 30*24*time.Hour),
		PropagationConcurrency: getint("PROPAGATION_CONCURRENCY", 16),
		VoteRateLimit:          getint("VOTE_RATE_LIMIT", 30),
	}
}
