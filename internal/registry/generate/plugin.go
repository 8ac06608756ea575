package generate

import (
	"context"
	"fmt"
)

// Request holds a single text-generation call.
type Request struct {
	SystemPrompt string
	UserMessage  string
	Temperature  float64
	MaxTokens    int
}

// Generator produces a reply for a composed prompt.
type Generator interface {
	// Generate returns the generated reply text. Implementations must honor
	// ctx cancellation; callers bound the call with a deadline.
	Generate(ctx context.Context, req Request) (string, error)
	// ModelName returns the model identifier reported in turn results.
	ModelName() string
}

// GenerationError wraps a provider failure (timeout, rejection, transport).
// The orchestrator recovers from it with a fallback reply.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Loader creates a Generator from config.
type Loader func(ctx context.Context) (Generator, error)

// Plugin represents a generation plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a generation plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered generation plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named generation plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown generator %q; valid: %v", name, Names())
}
