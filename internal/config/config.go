// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	VideoHost VideoHostConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings for the course page cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PageTTL  time.Duration
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// VideoHostConfig holds credentials for the external video host API
type VideoHostConfig struct {
	BaseURL     string
	TokenID     string
	TokenSecret string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPort, err := intEnv("DB_PORT", 0)
	if err != nil {
		return nil, err
	}
	if dbPort == 0 {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	accessExpiry, err := durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	refreshExpiry, err := durationEnv("JWT_REFRESH_TOKEN_EXPIRY", 168*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.RefreshTokenExpiry = refreshExpiry

	// Redis configuration (course page cache)
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Redis.Host = redisHost

	redisPort, err := intEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	pageTTL, err := durationEnv("COURSE_PAGE_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Redis.PageTTL = pageTTL

	// Video host configuration
	videoBaseURL := os.Getenv("VIDEO_HOST_BASE_URL")
	if videoBaseURL == "" {
		return nil, fmt.Errorf("VIDEO_HOST_BASE_URL is required")
	}
	cfg.VideoHost.BaseURL = videoBaseURL

	videoTokenID := os.Getenv("VIDEO_HOST_TOKEN_ID")
	if videoTokenID == "" {
		return nil, fmt.Errorf("VIDEO_HOST_TOKEN_ID is required")
	}
	cfg.VideoHost.TokenID = videoTokenID

	videoTokenSecret := os.Getenv("VIDEO_HOST_TOKEN_SECRET")
	if videoTokenSecret == "" {
		return nil, fmt.Errorf("VIDEO_HOST_TOKEN_SECRET is required")
	}
	cfg.VideoHost.TokenSecret = videoTokenSecret

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
