// Package llm talks to an OpenAI-compatible chat completion endpoint and
// classifies its failures into the apperr taxonomy.
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

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/config"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/metrics"
)

const codeInsufficientQuota = "insufficient_quota"

// Backend is the narrow interface the generators depend on.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// JSON asks the model for a single JSON object.
	JSON bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *logger.Logger
}

func NewClient(cfg *config.LLMConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != "none"
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// HTTPError is a non-2xx answer from the completion endpoint.
type HTTPError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm http %d", e.StatusCode)
}

// Complete sends one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Configured() {
		metrics.LLMRequests.WithLabelValues("unconfigured").Inc()
		return "", apperr.New(apperr.KindUnconfigured, "llm.Complete", "no API key configured")
	}

	start := time.Now()
	content, err := c.complete(ctx, req)
	outcome := outcomeOf(err)
	metrics.LLMRequests.WithLabelValues(outcome).Inc()
	metrics.LLMRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn("Language model request failed", "outcome", outcome, "error", err)
		return "", err
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	if req.MaxTokens > 0 {
		m := req.MaxTokens
		body.MaxTokens = &m
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify(resp.StatusCode, raw)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "failed to decode response", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", apperr.New(apperr.KindBackend, "llm.Complete", "empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// classify maps an error response onto the taxonomy by status code and the
// structured error code, never by scanning the message text.
func classify(status int, raw []byte) error {
	httpErr := &HTTPError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		httpErr.Message = env.Error.Message
		httpErr.Type = env.Error.Type
		if code, ok := env.Error.Code.(string); ok {
			httpErr.Code = code
		}
	} else {
		httpErr.Message = strings.TrimSpace(string(raw))
	}

	switch {
	case httpErr.Code == codeInsufficientQuota || httpErr.Type == codeInsufficientQuota:
		return apperr.Wrap(apperr.KindQuotaExceeded, "llm.Complete", httpErr)
	case status == http.StatusTooManyRequests:
		return apperr.Wrap(apperr.KindRateLimited, "llm.Complete", httpErr)
	default:
		return apperr.Wrap(apperr.KindBackend, "llm.Complete", httpErr)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindQuotaExceeded:
		return "quota_exceeded"
	case apperr.KindRateLimited:
		return "rate_limited"
	case apperr.KindUnconfigured:
		return "unconfigured"
	default:
		return "error"
	}
}
