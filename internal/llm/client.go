// Package llm turns free-text drawing descriptions into step text using an
// Ollama-compatible model server.
package llm

import (
	"bufio"
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

	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Generator produces step text for a description. onChunk, when non-nil,
// receives the text as it streams in.
type Generator interface {
	Generate(ctx context.Context, description string, onChunk func(string)) (string, error)
}

// OllamaClient talks to an Ollama server's /api/generate endpoint.
type OllamaClient struct {
	baseURL    string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
	log        *zap.Logger

	mu    sync.Mutex
	model string
}

// Option configures an OllamaClient.
type Option func(*OllamaClient)

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *OllamaClient) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option { return func(c *OllamaClient) { c.retries = n } }

// WithBackoff sets the first retry delay; later delays double.
func WithBackoff(d time.Duration) Option { return func(c *OllamaClient) { c.backoff = d } }

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *OllamaClient) {
		if log != nil {
			c.log = log.Named("llm")
		}
	}
}

// NewOllamaClient creates a client for the server at baseURL using model.
func NewOllamaClient(baseURL, model string, opts ...Option) *OllamaClient {
	c := &OllamaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model used for generation.
func (c *OllamaClient) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel switches the model used for later requests.
func (c *OllamaClient) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate asks the model for step text. The returned text is the model's
// final answer with any reasoning preamble removed.
func (c *OllamaClient) Generate(ctx context.Context, description string, onChunk func(string)) (string, error) {
	model := c.Model()
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Warn("retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		raw, streamed, err := c.stream(ctx, model, Prompt(description), onChunk)
		if err == nil {
			answer := ExtractFinalAnswer(raw)
			if answer == "" {
				return "", ErrEmptyResponse
			}
			return answer, nil
		}
		lastErr = err
		// Don't retry once the caller has seen output, or on cancellation.
		if streamed || ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", fmt.Errorf("generate with %s: %w", model, lastErr)
}

// stream performs one streaming request. streamed reports whether any chunk
// reached onChunk.
func (c *OllamaClient) stream(ctx context.Context, model, prompt string, onChunk func(string)) (text string, streamed bool, err error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: true})
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.log.Debug("skipping malformed chunk", zap.ByteString("line", line), zap.Error(err))
			continue
		}
		if chunk.Error != "" {
			return sb.String(), streamed, fmt.Errorf("model error: %s", chunk.Error)
		}
		if chunk.Response != "" {
			sb.WriteString(chunk.Response)
			if onChunk != nil {
				onChunk(chunk.Response)
				streamed = true
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return sb.String(), streamed, fmt.Errorf("read stream: %w", err)
	}
	c.log.Info("generation finished",
		zap.String("model", model),
		zap.Int("chars", sb.Len()),
		zap.Duration("took", time.Since(start)))
	return sb.String(), streamed, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of the models installed on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d)", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
