package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Ai         AIConfig
	Evaluation EvaluationConfig
	Otel       OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	UploadDir          string
	StorageDriver      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionTTL         time.Duration // zero keeps in-memory sessions for the process lifetime
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type AIConfig struct {
	LLMProvider    string // "ollama" or "openai"
	LLMModel       string
	LLMBaseURL     string
	LLMApiKey      string
	LLMTemperature float64

	EmbeddingProvider string // "ollama" or "gemini"
	EmbeddingModel    string
	OllamaBaseURL     string
	GoogleGeminiKey   string
}

type EvaluationConfig struct {
	DefaultThreshold      float64
	RetrievalTopK         int
	HistoryWindow         int
	CollaboratorTimeout   time.Duration
	CollaboratorRetries   int
	ChunkSize             int
	ChunkOverlap          int
	Extractor             string // "plain" or "tika"
	TikaURL               string
	TurnLockTTL           time.Duration
	IndexingWorkerBacklog int
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
			StorageDriver:      getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 0),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMApiKey:         getEnv("LLM_API_KEY", ""),
			LLMTemperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GoogleGeminiKey:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Evaluation: EvaluationConfig{
			DefaultThreshold:      getEnvAsFloat("EVAL_DEFAULT_THRESHOLD", 70),
			RetrievalTopK:         getEnvAsInt("EVAL_RETRIEVAL_TOP_K", 4),
			HistoryWindow:         getEnvAsInt("EVAL_HISTORY_WINDOW", 20),
			CollaboratorTimeout:   getEnvAsDuration("EVAL_COLLABORATOR_TIMEOUT", 60*time.Second),
			CollaboratorRetries:   getEnvAsInt("EVAL_COLLABORATOR_RETRIES", 2),
			ChunkSize:             getEnvAsInt("EVAL_CHUNK_SIZE", 1000),
			ChunkOverlap:          getEnvAsInt("EVAL_CHUNK_OVERLAP", 200),
			Extractor:             getEnv("EXTRACTOR", "plain"),
			TikaURL:               getEnv("TIKA_URL", "http://localhost:9998"),
			TurnLockTTL:           getEnvAsDuration("TURN_LOCK_TTL", 3*time.Minute),
			IndexingWorkerBacklog: getEnvAsInt("INDEXING_BACKLOG", 64),
		},
		Otel: OtelConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "cert-evaluator-be"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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
