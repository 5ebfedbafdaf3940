// Package llm provides a pluggable interface for chat completion providers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rcliao/section-j/internal/config"
)

// ErrDisabled is returned when no provider is configured.
var ErrDisabled = errors.New("llm provider disabled")

// Completer turns a system and user prompt into a reply.
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// --- OpenAI Provider ---

// OpenAICompleter uses the OpenAI chat completions API or any compatible endpoint.
type OpenAICompleter struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAICompleter creates a completer. An empty baseURL targets api.openai.com.
func NewOpenAICompleter(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompleter{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAICompleter) Name() string { return "openai:" + c.model }

func (c *OpenAICompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// --- Ollama Provider ---

// OllamaCompleter uses a local Ollama instance.
type OllamaCompleter struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// NewOllamaCompleter creates a completer using Ollama's chat API. An empty
// baseURL falls back to $OLLAMA_HOST, then localhost.
func NewOllamaCompleter(baseURL, model string, timeout time.Duration) *OllamaCompleter {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *OllamaCompleter) Name() string { return "ollama:" + c.model }

func (c *OllamaCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []ollamaMessage
	if systemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: userPrompt})

	body, _ := json.Marshal(ollamaRequest{Model: c.model, Messages: messages})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}
	return result.Message.Content, nil
}

// --- Static Provider ---

// Static replays canned replies in order, repeating the last one. It records
// the prompts it was given.
type Static struct {
	Replies []string
	Prompts []string
	calls   int
}

func (s *Static) Name() string { return "static" }

func (s *Static) CompleteWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	s.Prompts = append(s.Prompts, userPrompt)
	if len(s.Replies) == 0 {
		return "", nil
	}
	i := min(s.calls, len(s.Replies)-1)
	s.calls++
	return s.Replies[i], nil
}

// --- Factory ---

// NewFromConfig creates a completer from configuration. Provider "none" or
// "" returns ErrDisabled.
func NewFromConfig(cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs OPENAI_API_KEY or a base url")
		}
		return NewOpenAICompleter(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "ollama":
		return NewOllamaCompleter(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "", "none":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
