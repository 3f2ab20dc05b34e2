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
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	defaultAnthropicModel   = "claude-sonnet-4-5"
	anthropicVersion        = "2023-06-01"
)

// AnthropicClient выполняет запросы к Anthropic Messages API.
type AnthropicClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	maxTok  int
}

var _ domain.LLMClient = (*AnthropicClient)(nil)

// NewAnthropic создаёт клиента Anthropic.
func NewAnthropic(apiKey string, cfg Config) *AnthropicClient {
	baseURL := cfg.AnthropicBaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	model := cfg.AnthropicModel
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTok := cfg.MaxTokens
	if maxTok <= 0 {
		maxTok = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &AnthropicClient{
		http:    &http.Client{Timeout: timeout + 5*time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		maxTok:  maxTok,
	}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// prepareMessages строит единственную пользовательскую реплику с промптом.
// Anthropic не требует системной инструкции даже для JSON-ответа.
func (c *AnthropicClient) prepareMessages(prompt string, _ domain.LLMOptions) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: prompt}}
}

// Call выполняет ровно один запрос /messages и извлекает текст из
// первого блока контента.
func (c *AnthropicClient) Call(ctx context.Context, prompt string, opts domain.LLMOptions) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: %w", domain.ErrAPIKeyRequired)
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = c.maxTok
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		Messages:  c.prepareMessages(prompt, opts),
		MaxTokens: maxTok,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}
	endpoint := c.baseURL + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", fmt.Errorf("anthropic: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", fmt.Errorf("anthropic: read response: %w", err)
	}

	// Конверт ошибки проверяется раньше статуса: Anthropic кладёт
	// сообщение в тело и при 200, и при 4xx.
	var apiErr apiErrorEnvelope
	if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
		err = fmt.Errorf("anthropic: %s", apiErr.Error.Message)
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", err
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		err = fmt.Errorf("anthropic: пустой ответ модели")
		metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("anthropic", "messages", c.model, start, nil)
	if parsed.Usage != nil {
		metrics.ObserveLLMGeneration(c.model, time.Since(start), parsed.Usage.InputTokens, parsed.Usage.OutputTokens, 0)
	}
	return parsed.Content[0].Text, nil
}
