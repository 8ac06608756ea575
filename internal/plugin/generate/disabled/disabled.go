package disabled

import (
	"context"
	"fmt"

	"github.com/empathai/chat-service/internal/registry/generate"
)

func init() {
	generate.Register(generate.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (generate.Generator, error) {
			return &disabledGenerator{}, nil
		},
	})
}

// disabledGenerator always fails, which drives the orchestrator down its
// fallback-reply path. Useful for tests and offline development.
type disabledGenerator struct{}

func (d *disabledGenerator) Generate(_ context.Context, _ generate.Request) (string, error) {
	return "", &generate.GenerationError{
		Provider: "none",
		Err:      fmt.Errorf("generation is disabled"),
	}
}

func (d *disabledGenerator) ModelName() string { return "none" }

var _ generate.Generator = (*disabledGenerator)(nil)
