// Package ollama provides a minimal client for the Ollama chat API with
// streaming and thinking-trace support.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Default configuration
const (
	DefaultLocalBaseURL = "http://localhost:11434"
	DefaultCloudBaseURL = "https://ollama.com"
	DefaultTimeout      = 120 * time.Second
)

// Message represents a chat message
type Message struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"` // Thinking trace (reasoning tokens)
}

// ThinkMode represents the thinking mode setting
type ThinkMode string

const (
	ThinkModeAuto ThinkMode = "auto"
	ThinkModeOn   ThinkMode = "on"
	ThinkModeOff  ThinkMode = "off"
)

// ChatRequest represents a chat API request
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Think    *bool     `json:"think,omitempty"`
}

// ChatResponse represents a streaming chat response chunk
type ChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

// ModelInfo represents information about a model
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// TagsResponse represents the response from /api/tags
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// StreamChunk represents a chunk from the streaming response
type StreamChunk struct {
	Response ChatResponse
	Error    error
}

// Client is the Ollama API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	model      string
	thinkMode  ThinkMode
	mu         sync.RWMutex
}

// NewClient creates a new Ollama client configured from the environment
// (OLLAMA_HOST, OLLAMA_MODEL, OLLAMA_API_KEY).
func NewClient() *Client {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}

	// Check for cloud endpoint
	apiKey := os.Getenv("OLLAMA_API_KEY")
	if apiKey != "" && baseURL == DefaultLocalBaseURL {
		baseURL = DefaultCloudBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		model:     os.Getenv("OLLAMA_MODEL"),
		thinkMode: ThinkModeAuto,
	}
}

// SetModel sets the current model
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// GetModel returns the current model
func (c *Client) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetThinkMode sets the thinking mode
func (c *Client) SetThinkMode(mode ThinkMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thinkMode = mode
}

// GetThinkMode returns the current thinking mode
func (c *Client) GetThinkMode() ThinkMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.thinkMode
}

// IsThinkingCapable returns true if the current model is known to emit a
// thinking trace.
func (c *Client) IsThinkingCapable() bool {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	thinkingModels := []string{
		"deepseek",
		"qwq",
		"gpt-oss",
		"thinking",
		"reason",
	}

	modelLower := strings.ToLower(model)
	for _, pattern := range thinkingModels {
		if strings.Contains(modelLower, pattern) {
			return true
		}
	}
	return false
}

// buildThinkValue builds the think field value based on mode and model
func (c *Client) buildThinkValue() *bool {
	c.mu.RLock()
	mode := c.thinkMode
	c.mu.RUnlock()

	switch mode {
	case ThinkModeOff:
		v := false
		return &v
	case ThinkModeOn:
		v := true
		return &v
	case ThinkModeAuto:
		if c.IsThinkingCapable() {
			v := true
			return &v
		}
		// Not a thinking model - omit think field
		return nil
	default:
		return nil
	}
}

// ListModels fetches available models from /api/tags
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var tagsResp TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return tagsResp.Models, nil
}

// ChatStream sends a chat request and returns a channel for streaming
// responses. Chunks arrive in production order; the channel is closed after
// the final (done) chunk or an error chunk.
func (c *Client) ChatStream(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	if model == "" {
		return nil, fmt.Errorf("no model selected; use SetModel() or set OLLAMA_MODEL")
	}

	// Thinking is display-only and must not be echoed back to the model.
	var cleanMessages []Message
	for _, m := range messages {
		cleanMessages = append(cleanMessages, Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	chatReq := ChatRequest{
		Model:    model,
		Messages: cleanMessages,
		Stream:   true,
		Think:    c.buildThinkValue(),
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- StreamChunk{Error: ctx.Err()}
				return
			default:
			}

			line := scanner.Text()
			if line == "" {
				continue
			}

			var chatResp ChatResponse
			if err := json.Unmarshal([]byte(line), &chatResp); err != nil {
				ch <- StreamChunk{Error: fmt.Errorf("failed to decode chunk: %w", err)}
				continue
			}

			ch <- StreamChunk{Response: chatResp}

			if chatResp.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: fmt.Errorf("scanner error: %w", err)}
		}
	}()

	return ch, nil
}

// Chat sends a non-streaming chat request
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	if model == "" {
		return nil, fmt.Errorf("no model selected; use SetModel() or set OLLAMA_MODEL")
	}

	var cleanMessages []Message
	for _, m := range messages {
		cleanMessages = append(cleanMessages, Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	chatReq := ChatRequest{
		Model:    model,
		Messages: cleanMessages,
		Stream:   false,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &chatResp, nil
}

// IsAvailable checks if Ollama is reachable
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}
