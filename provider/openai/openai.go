package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mpfeed/config"
	"mpfeed/internal/resilience/retry"
)

// Usage reports token consumption for a single completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Client implements the provider interface using OpenAI's chat completion API.
type Client struct {
	api        *openai.Client
	maxRetries int
}

// NewClient creates a new OpenAI-backed client.
func NewClient(apiKey string, timeout time.Duration, maxRetries int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		maxRetries: maxRetries,
	}
}

// Complete sends a system/user prompt pair to the configured model and
// returns the response text. Transient API failures (429, 5xx, timeouts) are
// retried with backoff up to the configured attempt ceiling.
func (c *Client) Complete(ctx context.Context, model config.LLMModel, system, user string) (string, Usage, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	req := openai.ChatCompletionRequest{
		Model:       model.Name,
		Messages:    messages,
		Temperature: float32(model.Temperature),
		MaxTokens:   model.MaxTokens,
	}

	var resp openai.ChatCompletionResponse
	err := retry.WithBackoff(ctx, retry.LLMConfig(c.maxRetries), func() error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return classify(err)
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no choices in response")
	}

	usage := Usage{
		PromptTokens:     int64(resp.Usage.PromptTokens),
		CompletionTokens: int64(resp.Usage.CompletionTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// classify maps OpenAI API errors onto the retry package's HTTP error type
// so the shared retryability rules apply.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	return err
}
