package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hn-distill/internal/domain"
	"hn-distill/internal/infra/metrics"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-5.1"
)

// jsonSystemPrompt требует от модели вернуть голый JSON-объект.
const jsonSystemPrompt = "You MUST return a valid JSON object. Do not include any other text in your response."

// OpenAIClient выполняет Chat Completions запросы.
type OpenAIClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ domain.LLMClient = (*OpenAIClient)(nil)

// NewOpenAI создаёт клиента OpenAI.
func NewOpenAI(apiKey string, cfg Config) *OpenAIClient {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OpenAIClient{
		http:    &http.Client{Timeout: timeout + 5*time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []ChatMessage         `json:"messages"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// prepareMessages добавляет системную инструкцию про JSON, когда вызов
// ожидает структурированный ответ.
func (c *OpenAIClient) prepareMessages(prompt string, opts domain.LLMOptions) []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if opts.ExpectJSON {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: jsonSystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: prompt})
	return messages
}

// Call выполняет ровно один запрос /chat/completions и извлекает текст
// из первого choice.
func (c *OpenAIClient) Call(ctx context.Context, prompt string, opts domain.LLMOptions) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: %w", domain.ErrAPIKeyRequired)
	}
	req := openAIRequest{
		Model:    c.model,
		Messages: c.prepareMessages(prompt, opts),
	}
	if opts.ExpectJSON {
		req.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", fmt.Errorf("openai: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var apiErr apiErrorEnvelope
	if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
		err = fmt.Errorf("openai: %s", apiErr.Error.Message)
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", err
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		err = fmt.Errorf("openai: пустой ответ модели")
		metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("openai", "chat_completions", c.model, start, nil)
	if parsed.Usage != nil {
		metrics.ObserveLLMGeneration(c.model, time.Since(start), parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, parsed.Usage.TotalTokens)
	}
	return parsed.Choices[0].Message.Content, nil
}
