// Package maskedlm queries a hosted masked language model for the
// probability of a word at a masked position.
package maskedlm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MaskToken is the placeholder the model fills in.
const MaskToken = "[MASK]"

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "bert-base-uncased"

	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Predictor returns the probability the model assigns to word at the
// MaskToken position of masked.
type Predictor interface {
	Probability(ctx context.Context, masked, word string) (float64, error)
}

// Config holds connection settings for a fill-mask endpoint.
type Config struct {
	BaseURL     string
	Model       string
	Token       string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Client calls a Hugging Face style fill-mask inference endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	token       string
	rateLimiter *rateLimiter
	retryDelay  time.Duration
}

var _ Predictor = (*Client)(nil)

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewClient creates a fill-mask client. Zero values in cfg take defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		token:       cfg.Token,
		rateLimiter: newRateLimiter(cfg.MinInterval),
		retryDelay:  initialRetryDelay,
	}
}

type fillMaskRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters fillMaskParams   `json:"parameters"`
	Options    *fillMaskOptions `json:"options,omitempty"`
}

type fillMaskParams struct {
	Targets []string `json:"targets"`
}

type fillMaskOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type prediction struct {
	Score    float64 `json:"score"`
	Token    int     `json:"token"`
	TokenStr string  `json:"token_str"`
	Sequence string  `json:"sequence"`
}

// Probability asks the model for word as the only target at the masked
// position. A word the model vocabulary cannot represent gets 0.
func (c *Client) Probability(ctx context.Context, masked, word string) (float64, error) {
	if !strings.Contains(masked, MaskToken) {
		return 0, fmt.Errorf("input has no %s token", MaskToken)
	}
	if strings.TrimSpace(word) == "" {
		return 0, fmt.Errorf("empty target word")
	}

	body, err := json.Marshal(fillMaskRequest{
		Inputs:     masked,
		Parameters: fillMaskParams{Targets: []string{word}},
		Options:    &fillMaskOptions{WaitForModel: true},
	})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	var predictions []prediction
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		predictions, lastErr = c.doFillMask(ctx, body)
		if lastErr == nil {
			return matchProbability(predictions, word), nil
		}

		if !isRetryableError(lastErr) {
			return 0, lastErr
		}
	}

	return 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doFillMask(ctx context.Context, body []byte) ([]prediction, error) {
	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)

	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	var predictions []prediction
	if err := json.NewDecoder(resp.Body).Decode(&predictions); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return predictions, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	return min(delay, maxRetryDelay)
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}

func matchProbability(predictions []prediction, word string) float64 {
	for _, p := range predictions {
		if strings.EqualFold(normalizeToken(p.TokenStr), word) {
			return p.Score
		}
	}
	return 0
}

// normalizeToken drops word-piece and sentence-piece prefixes.
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "##")
	token = strings.TrimPrefix(token, "Ġ")
	token = strings.TrimPrefix(token, "▁")
	return token
}
