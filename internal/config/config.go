package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/models"
)

type Config struct {
	LISTEN_ADDR string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_ACCESS_SECRET  string
	JWT_REFRESH_SECRET string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	COOKIE_NAME   string
	COOKIE_DOMAIN string
	CookieSecure  bool

	CORS_ORIGIN string
	RateLimit   float64

	KAFKA_ADDRESS string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string

	LOG_LEVEL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		LISTEN_ADDR:        getEnv("LISTEN_ADDR", ":8080"),
		DB_HOST:            os.Getenv("DB_HOST"),
		DB_PORT:            os.Getenv("DB_PORT"),
		DB_USER:            os.Getenv("DB_USER"),
		DB_PASSWORD:        os.Getenv("DB_PASSWORD"),
		DB_NAME:            os.Getenv("DB_NAME"),
		JWT_ACCESS_SECRET:  os.Getenv("JWT_ACCESS_SECRET"),
		JWT_REFRESH_SECRET: os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		COOKIE_NAME:        getEnv("COOKIE_NAME", "refresh_token"),
		COOKIE_DOMAIN:      os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       os.Getenv("COOKIE_SECURE") == "true",
		CORS_ORIGIN:        getEnv("CORS_ORIGIN", "*"),
		RateLimit:          getFloat("RATE_LIMIT", 20),
		KAFKA_ADDRESS:      os.Getenv("KAFKA_ADDRESS"),
		ES_URL:             os.Getenv("ES_URL"),
		ES_USER:            os.Getenv("ES_USER"),
		ES_PASSWORD:        os.Getenv("ES_PASSWORD"),
		LOG_LEVEL:          getEnv("LOG_LEVEL", "info"),
	}

	if config.JWT_ACCESS_SECRET == "" || config.JWT_REFRESH_SECRET == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	if config.JWT_ACCESS_SECRET == config.JWT_REFRESH_SECRET {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	return config, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Notice: cannot parse %s, using default %v", key, def)
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Course{}, &models.Feedback{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
