package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type Ollama struct {
	client *api.Client
	model  string
}

func NewOllama(baseURL, model string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "llama3"
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient), model: model}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Close() error { return nil }

func (o *Ollama) Generate(ctx context.Context, system, prompt string) (string, error) {
	return o.chat(ctx, system, prompt, nil)
}

func (o *Ollama) GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error) {
	if schema == nil {
		return "", ErrNoSchema
	}
	format, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	return o.chat(ctx, system, prompt, format)
}

func (o *Ollama) chat(ctx context.Context, system, prompt string, format json.RawMessage) (string, error) {
	msgs := make([]api.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: system})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	var content strings.Builder
	err := o.client.Chat(ctx, &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Format:   format,
		Options:  map[string]interface{}{"temperature": 0.4},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	if content.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return content.String(), nil
}
