package concerns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds moderation service configuration
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the HTTP concern classifier
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates new concern classifier client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Concerns []Concern `json:"concerns"`
}

// Classify submits text to the moderation service and returns the
// concerns it flagged
func (c *Client) Classify(ctx context.Context, text string) ([]Concern, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("concerns client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, fmt.Errorf("concerns config error: base_url is empty")
	}

	payload, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("concerns api call failed: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/api/v1/moderation/concerns"

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("concerns api call failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("concerns api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("concerns api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("concerns api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out classifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse concerns response: %w", err)
	}

	return out.Concerns, nil
}
