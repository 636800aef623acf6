package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDB       string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	JWTExpirationHours int
}

// Load reads the environment. Missing token settings are a configuration
// error, not a runtime error: the process refuses to start without them.
func Load() *Config {
	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "todoapp"),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "todoapp-exports"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		JWTSecret:          getenv("JWT_SECRET", ""),
		JWTIssuer:          getenv("JWT_ISSUER", ""),
		JWTAudience:        getenv("JWT_AUDIENCE", ""),
		JWTExpirationHours: getenvInt("JWT_EXPIRATION_HOURS", 24),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not configured")
	}
	if cfg.JWTIssuer == "" {
		log.Fatal("JWT_ISSUER is not configured")
	}
	if cfg.JWTAudience == "" {
		log.Fatal("JWT_AUDIENCE is not configured")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid value %q for %s", v, key)
	}
	return n
}
