package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Chat     ChatConfig
	Memory   MemoryConfig
	Reminder ReminderConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMProvider    string // "ollama"
	LLMModel       string // e.g. "llama3", "qwen2.5"
	SystemPrompt   string
}

type ChatConfig struct {
	PersistDebounce time.Duration
	SessionTTL      time.Duration // idle lifetime of an in-process chat session
	SessionIdTTL    time.Duration // lifetime of the ephemeral session identifier
	SnapshotTTL     time.Duration // 0 keeps snapshots forever
}

type MemoryConfig struct {
	Backend          string // "local" or "remote"
	FunctionsBaseURL string
	FunctionsAPIKey  string
	ReindexTopic     string
}

type ReminderConfig struct {
	InactiveAfter time.Duration
	Cooldown      time.Duration
	BatchSize     int
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "EQ Coach"),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			SystemPrompt: getEnv("COACH_SYSTEM_PROMPT",
				"You are a warm, practical emotional intelligence coach. Keep answers short and ask one reflective question."),
		},
		Chat: ChatConfig{
			PersistDebounce: time.Duration(getEnvAsInt("CHAT_PERSIST_DEBOUNCE_MS", 1000)) * time.Millisecond,
			SessionTTL:      getEnvAsDuration("CHAT_SESSION_TTL", time.Hour),
			SessionIdTTL:    getEnvAsDuration("CHAT_SESSION_ID_TTL", 12*time.Hour),
			SnapshotTTL:     getEnvAsDuration("CHAT_SNAPSHOT_TTL", 0),
		},
		Memory: MemoryConfig{
			Backend:          getEnv("MEMORY_BACKEND", "local"),
			FunctionsBaseURL: getEnv("FUNCTIONS_BASE_URL", ""),
			FunctionsAPIKey:  getEnv("FUNCTIONS_API_KEY", ""),
			ReindexTopic:     getEnv("MEMORY_REINDEX_TOPIC_NAME", "MEMORY_REINDEX"),
		},
		Reminder: ReminderConfig{
			InactiveAfter: getEnvAsDuration("REMINDER_INACTIVE_AFTER", 72*time.Hour),
			Cooldown:      getEnvAsDuration("REMINDER_COOLDOWN", 7*24*time.Hour),
			BatchSize:     getEnvAsInt("REMINDER_BATCH_SIZE", 200),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
