package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		Env string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Photos struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	Push struct {
		Endpoint string
		APIKey   string
		Timeout  time.Duration
	}

	Embedder struct {
		Endpoint string
		Timeout  time.Duration
	}

	Match struct {
		MinScore      float64
		LookupRetries int
		RetryDelay    time.Duration
		Workers       int
		QueueSize     int
	}
}

func New() *Config {
	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "findthem_core")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "findthem")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// Photo store (MinIO or any S3-compatible endpoint)
	cfg.Photos.Endpoint = getEnvDefault("PHOTOS_ENDPOINT", "localhost:9000")
	cfg.Photos.AccessKey = getEnvDefault("PHOTOS_ACCESS_KEY", "minioadmin")
	cfg.Photos.SecretKey = getEnvDefault("PHOTOS_SECRET_KEY", "minioadmin")
	cfg.Photos.Bucket = getEnvDefault("PHOTOS_BUCKET", "case-photos")
	cfg.Photos.UseSSL = isTruthy(os.Getenv("PHOTOS_USE_SSL"))

	// Push delivery (FCM)
	cfg.Push.Endpoint = getEnvDefault("PUSH_ENDPOINT", "https://fcm.googleapis.com/fcm/send")
	cfg.Push.APIKey = getEnvDefault("PUSH_API_KEY", "")
	cfg.Push.Timeout = getDurationDefault("PUSH_TIMEOUT", 10*time.Second)

	// Face embedding service
	cfg.Embedder.Endpoint = getEnvDefault("EMBEDDER_ENDPOINT", "http://localhost:8500")
	cfg.Embedder.Timeout = getDurationDefault("EMBEDDER_TIMEOUT", 30*time.Second)

	// Matching pipeline
	cfg.Match.MinScore = getFloatDefault("MATCH_MIN_SCORE", 40.0)
	cfg.Match.LookupRetries = getIntDefault("MATCH_LOOKUP_RETRIES", 3)
	cfg.Match.RetryDelay = getDurationDefault("MATCH_RETRY_DELAY", 2*time.Second)
	cfg.Match.Workers = getIntDefault("MATCH_WORKERS", 4)
	cfg.Match.QueueSize = getIntDefault("MATCH_QUEUE_SIZE", 64)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloatDefault(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
