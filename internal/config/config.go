package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Identity IdentityConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	RetitleTopic       string
}

type DatabaseConfig struct {
	Connection string
}

// IdentityConfig selects how bearer tokens are verified: "remote" calls a
// hosted identity provider per request, "local" checks an HS256 signature
// against a shared secret.
type IdentityConfig struct {
	Mode      string
	BaseURL   string
	AnonKey   string
	JWTSecret string
}

type AIConfig struct {
	Provider     string // "openai" or "ollama"
	BaseURL      string
	APIKey       string
	DefaultModel string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			RetitleTopic:       getEnv("RETITLE_CHAT_TOPIC_NAME", "RETITLE_CHAT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Identity: IdentityConfig{
			Mode:      getEnv("IDENTITY_MODE", "remote"),
			BaseURL:   getEnv("IDENTITY_BASE_URL", ""),
			AnonKey:   getEnv("IDENTITY_ANON_KEY", ""),
			JWTSecret: getEnv("IDENTITY_JWT_SECRET", ""),
		},
		Ai: AIConfig{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			BaseURL:      getEnv("LLM_BASE_URL", ""),
			APIKey:       getEnv("LLM_API_KEY", ""),
			DefaultModel: getEnv("LLM_MODEL", "gpt-5.1"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
