package llm

import (
	"context"
	"errors"
)

// Provider is a hosted language model.
type Provider interface {
	// Generate returns the model's free-form text answer.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// GenerateJSON asks for a JSON document shaped by schema and returns it raw.
	GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error)
	Name() string
	Close() error
}

var (
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrNoSchema      = errors.New("llm: schema required")
)
