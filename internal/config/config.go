package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the runtime configuration loaded from the environment.
type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	AMQPURL      string
	AMQPExchange string
	OTLPEndpoint string
	Environment  string

	Cloudinary CloudinaryConfig
	GeoBaseURL string
}

// CloudinaryConfig carries credentials for the image upload backend.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			getEnv("PGUSER", "market_user"),
			getEnv("PGPASSWORD", "password"),
			getEnv("PGHOST", "localhost"),
			getEnv("PGPORT", "5432"),
			getEnv("PGDATABASE", "marketplace"),
			getEnv("PGSSLMODE", "disable"),
		)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8086"),
		DatabaseURL:  dbURL,
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "marketplace.events"),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		Environment:  getEnv("APP_ENV", "production"),
		Cloudinary: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "marketplace"),
		},
		GeoBaseURL: getEnv("GEO_API_BASE_URL", "https://countriesnow.space/api/v0.1"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
