package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Place is the classifier's answer for a coordinate. Found is false when
// no business could be resolved nearby.
type Place struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Found    bool   `json:"found"`
}

// Classifier resolves a coordinate into a venue category. The production
// implementation calls the platform's place service; tests substitute
// their own.
type Classifier interface {
	Classify(ctx context.Context, lat, lng float64) (*Place, error)
}

// Config holds place service configuration
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the HTTP place classifier
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates new place classifier client
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

// Classify looks up the venue category for a coordinate
func (c *Client) Classify(ctx context.Context, lat, lng float64) (*Place, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("places client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, fmt.Errorf("places config error: base_url is empty")
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	endpoint := base + "/api/v1/places/classify?" + query.Encode()

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("places api call failed: %w", err)
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("places api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("places api call failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &Place{Found: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("places api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out Place
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse places response: %w", err)
	}

	return &out, nil
}
