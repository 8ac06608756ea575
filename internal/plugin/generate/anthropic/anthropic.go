package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/empathai/chat-service/internal/config"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
)

func init() {
	registrygenerate.Register(registrygenerate.Plugin{
		Name:   "anthropic",
		Loader: load,
	})
}

func load(ctx context.Context) (registrygenerate.Generator, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("anthropic generator: CHAT_SERVICE_ANTHROPIC_API_KEY is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	return &Generator{
		client: &client,
		model:  cfg.AnthropicModel,
	}, nil
}

// Generator produces replies via the Anthropic Messages API.
type Generator struct {
	client *anthropic.Client
	model  string
}

func (g *Generator) ModelName() string { return g.model }

func (g *Generator) Generate(ctx context.Context, req registrygenerate.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", &registrygenerate.GenerationError{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", &registrygenerate.GenerationError{
			Provider: "anthropic",
			Err:      fmt.Errorf("response contained no text blocks"),
		}
	}
	return reply, nil
}

var _ registrygenerate.Generator = (*Generator)(nil)
