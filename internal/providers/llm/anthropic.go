package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(apiKey, baseURL, model string) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model, maxTokens: 4096}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Close() error { return nil }

func (a *Anthropic) Generate(ctx context.Context, system, prompt string) (string, error) {
	return a.send(ctx, system, prompt)
}

// GenerateJSON has no native schema mode here; the schema goes into the
// system prompt and the answer is cut down to the outermost object.
func (a *Anthropic) GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error) {
	if schema == nil {
		return "", ErrNoSchema
	}
	doc, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	system = strings.TrimSpace(system + "\n\nRespond with a single JSON object that validates against this JSON Schema and nothing else:\n" + string(doc))
	out, err := a.send(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	return trimToObject(out), nil
}

func (a *Anthropic) send(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func trimToObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
