package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr string

	DBDriver string
	DBDSN    string

	SessionSecret string
	SessionTTL    time.Duration

	// AI provider
	AIProvider    string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string

	// optional: session token revocation store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// optional: chat event publishing
	RabbitURL   string
	RabbitQueue string
}

func Load() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":5001"
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		// mysql DSN demo:
		// app:apppass@tcp(127.0.0.1:3306)/gopherchat?charset=utf8mb4&parseTime=true&loc=Local
		dsn = "gopherchat.db"
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	ttl := 24 * time.Hour
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Hour
		}
	}

	aiProvider := os.Getenv("AI_PROVIDER")
	if aiProvider == "" {
		aiProvider = "openai"
	}

	openAIBaseURL := os.Getenv("OPENAI_BASE_URL")
	if openAIBaseURL == "" {
		openAIBaseURL = "https://api.openai.com/v1"
	}
	openAIModel := os.Getenv("OPENAI_MODEL")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}

	ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL")
	if ollamaBaseURL == "" {
		ollamaBaseURL = "http://localhost:11434"
	}
	ollamaModel := os.Getenv("OLLAMA_MODEL")
	if ollamaModel == "" {
		ollamaModel = "llama3:latest"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_events"
	}

	return Config{
		Addr: addr,

		DBDriver: driver,
		DBDSN:    dsn,

		SessionSecret: secret,
		SessionTTL:    ttl,

		AIProvider:    aiProvider,
		OpenAIBaseURL: openAIBaseURL,
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   openAIModel,
		OllamaBaseURL: ollamaBaseURL,
		OllamaModel:   ollamaModel,

		// empty REDIS_ADDR leaves the revocation store disabled
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		// empty RABBIT_URL leaves event publishing disabled
		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,
	}
}
