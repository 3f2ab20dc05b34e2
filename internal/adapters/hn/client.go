package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hn-distill/internal/domain"
	"hn-distill/internal/infra/metrics"
)

const defaultBaseURL = "https://hn.algolia.com/api/v1"

// Client выгружает треды через Algolia items API.
type Client struct {
	http    *http.Client
	baseURL string
}

var _ domain.ThreadSource = (*Client)(nil)

// NewClient создаёт клиента Algolia.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch возвращает сырое дерево комментариев треда.
// Не-2xx статус считается ошибкой выгрузки.
func (c *Client) Fetch(ctx context.Context, threadID string) (domain.RawThread, error) {
	endpoint := c.baseURL + "/items/" + url.PathEscape(threadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RawThread{}, fmt.Errorf("algolia: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("algolia", "items", threadID, start, err)
		return domain.RawThread{}, fmt.Errorf("algolia: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("не удалось выгрузить тред: %s", http.StatusText(resp.StatusCode))
		metrics.ObserveNetworkRequest("algolia", "items", threadID, start, err)
		return domain.RawThread{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("algolia", "items", threadID, start, err)
		return domain.RawThread{}, fmt.Errorf("algolia: read response: %w", err)
	}

	var thread domain.RawThread
	if err := json.Unmarshal(body, &thread); err != nil {
		metrics.ObserveNetworkRequest("algolia", "items", threadID, start, err)
		return domain.RawThread{}, fmt.Errorf("algolia: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("algolia", "items", threadID, start, nil)
	return thread, nil
}
