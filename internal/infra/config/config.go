package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса панели.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8090"`

	HN struct {
		BaseURL string        `envconfig:"HN_API_BASE_URL" default:"https://hn.algolia.com/api/v1"`
		Timeout time.Duration `envconfig:"HN_API_TIMEOUT" default:"30s"`
	} `envconfig:""`

	LLM struct {
		AnthropicBaseURL string        `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com/v1"`
		AnthropicModel   string        `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
		OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
		OpenAIModel      string        `envconfig:"OPENAI_MODEL" default:"gpt-5.1"`
		Timeout          time.Duration `envconfig:"LLM_TIMEOUT" default:"300s"`
		MaxTokens        int           `envconfig:"LLM_MAX_TOKENS" default:"8192"`
	} `envconfig:""`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// PGDSN пустой отключает журнал анализов.
	PGDSN string `envconfig:"PG_DSN"`

	History struct {
		Limit int `envconfig:"HISTORY_LIMIT" default:"50"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
