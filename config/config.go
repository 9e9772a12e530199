package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	LyricsTTL     time.Duration // how long fetched lyrics stay in Redis

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
	PresignTTL     time.Duration // lifetime of playable URLs handed out by ListAll

	AIBaseURL     string // OpenAI-compatible endpoint, e.g. https://api.openai.com/v1
	AIAPIKey      string
	AIModel       string
	AIMaxTokens   int
	AITemperature float64

	SearchBaseURL string // video search API root
	SearchAPIKey  string

	JWTSecret         string
	AdminPasswordHash string // bcrypt hash; login is disabled when empty
	TokenTTL          time.Duration

	LogLevel string
	LogFile  string

	ImportDir   string // drop folder watched for new audio files, empty disables
	FrameRate   int
	PresetsFile string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load reads configuration from the environment, loading a .env file first if one exists.
// Existing environment variables always win over .env entries.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "spectrafm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LyricsTTL:     getEnvDuration("LYRICS_TTL", 7*24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "spectrafm"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		PresignTTL:     getEnvDuration("MINIO_PRESIGN_TTL", 12*time.Hour),

		AIBaseURL:     getEnv("AI_API_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       getEnv("AI_MODEL", "gpt-4o-mini"),
		AIMaxTokens:   getEnvInt("AI_MAX_TOKENS", 1024),
		AITemperature: getEnvFloat("AI_TEMPERATURE", 0.8),

		SearchBaseURL: getEnv("SEARCH_API_URL", "https://www.googleapis.com/youtube/v3"),
		SearchAPIKey:  os.Getenv("SEARCH_API_KEY"),

		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 72*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		ImportDir:   getEnv("IMPORT_DIR", ""),
		FrameRate:   getEnvInt("FRAME_RATE", 30),
		PresetsFile: getEnv("PRESETS_FILE", ""),
	}
}
