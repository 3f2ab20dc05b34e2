package llm

import (
	"time"

	"hn-distill/internal/domain"
)

// ChatMessage представляет одну реплику диалога с моделью.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	// RoleSystem системная инструкция.
	RoleSystem = "system"
	// RoleUser сообщение пользователя.
	RoleUser = "user"
)

const defaultMaxTokens = 8192

// Config задаёт параметры провайдеров.
type Config struct {
	AnthropicBaseURL string
	AnthropicModel   string
	OpenAIBaseURL    string
	OpenAIModel      string
	Timeout          time.Duration
	MaxTokens        int
}

// Select выбирает клиента по форме ключа: префикс "sk-ant-" уходит в
// Anthropic, любой другой непустой ключ в OpenAI. Чисто синтаксическая
// диспетчеризация, без сетевых проверок.
func Select(apiKey string, cfg Config) (domain.LLMClient, error) {
	if apiKey == "" {
		return nil, domain.ErrAPIKeyRequired
	}
	if domain.IsAnthropicKey(apiKey) {
		return NewAnthropic(apiKey, cfg), nil
	}
	return NewOpenAI(apiKey, cfg), nil
}

type apiErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
