package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.1:8b"
)

// OllamaClient talks to a local Ollama server through its generate
// endpoint. Generation runs with temperature 0 so extraction and
// ranking stay as deterministic as the model allows.
type OllamaClient struct {
	baseURL string
	model   string
	httpc   *http.Client
}

// OllamaOption adjusts an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaURL points the client at a non-default server.
func WithOllamaURL(url string) OllamaOption {
	return func(c *OllamaClient) { c.baseURL = url }
}

// WithOllamaModel selects the model to generate with.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithOllamaHTTPClient swaps the underlying HTTP client.
func WithOllamaHTTPClient(httpc *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.httpc = httpc }
}

// NewOllamaClient builds a client for http://localhost:11434 and
// llama3.1:8b unless options say otherwise.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL: defaultOllamaURL,
		model:   defaultOllamaModel,
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Complete sends the prompt to /api/generate and returns the full
// (non-streamed) response text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, bytes.TrimSpace(raw))
	}
	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Response, nil
}
