// Package openai generates replies via an OpenAI-compatible chat
// completions endpoint. The base URL is configurable, so Groq and other
// compatible providers work with the same plugin.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/empathai/chat-service/internal/config"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
)

func init() {
	registrygenerate.Register(registrygenerate.Plugin{
		Name:   "openai",
		Loader: load,
	})
}

func load(ctx context.Context) (registrygenerate.Generator, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.GenerateOpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai generator: CHAT_SERVICE_GENERATE_OPENAI_API_KEY is required")
	}
	return &Generator{
		apiKey:  cfg.GenerateOpenAIAPIKey,
		model:   cfg.GenerateOpenAIModel,
		baseURL: strings.TrimRight(cfg.GenerateOpenAIBaseURL, "/"),
	}, nil
}

type Generator struct {
	apiKey  string
	model   string
	baseURL string
}

func (g *Generator) ModelName() string { return g.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Generator) Generate(ctx context.Context, req registrygenerate.Request) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserMessage},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", &registrygenerate.GenerationError{Provider: "openai", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &registrygenerate.GenerationError{Provider: "openai", Err: err}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &registrygenerate.GenerationError{
			Provider: "openai",
			Err:      fmt.Errorf("parse response: %w", err),
		}
	}
	if result.Error != nil {
		return "", &registrygenerate.GenerationError{
			Provider: "openai",
			Err:      fmt.Errorf("%s", result.Error.Message),
		}
	}
	if len(result.Choices) == 0 {
		return "", &registrygenerate.GenerationError{
			Provider: "openai",
			Err:      fmt.Errorf("response contained no choices"),
		}
	}
	reply := strings.TrimSpace(result.Choices[0].Message.Content)
	if reply == "" {
		return "", &registrygenerate.GenerationError{
			Provider: "openai",
			Err:      fmt.Errorf("response contained empty content"),
		}
	}
	return reply, nil
}

var _ registrygenerate.Generator = (*Generator)(nil)
