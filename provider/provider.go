package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mpfeed/config"
	openai_provider "mpfeed/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Usage reports token consumption for a single completion.
type Usage = openai_provider.Usage

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Complete(ctx context.Context, model config.LLMModel, system, user string) (string, Usage, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI:
		apiKey := cfg.ResolveAPIKey()
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewClient(apiKey, cfg.Timeout, cfg.MaxRetries), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}

// ExtractJSON pulls the first balanced JSON object out of a model response.
// Models occasionally wrap output in prose or code fences; scanning for
// balanced braces is more robust than trimming fences.
func ExtractJSON(response string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, ch := range response {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return response[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("no JSON object found in response")
}

// DecodeInto extracts the JSON object from a model response and unmarshals
// it into v.
func DecodeInto(response string, v interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("failed to parse structured output: %w", err)
	}
	return nil
}
