package llm

import (
	"context"

	"google.golang.org/genai"
)

// Gemini uses the Gemini developer API with an API key.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &Gemini{client: c, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error { return nil }

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	return g.generate(ctx, prompt, g.config(system))
}

func (g *Gemini) GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error) {
	if schema == nil {
		return "", ErrNoSchema
	}
	cfg := g.config(system)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = toGenaiSchema(schema)
	return g.generate(ctx, prompt, cfg)
}

func (g *Gemini) config(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.4)}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (g *Gemini) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if len(s.Order) > 0 {
		out.PropertyOrdering = s.Order
	}
	switch s.Type {
	case TypeString:
		out.Type = genai.TypeString
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeObject:
		out.Type = genai.TypeObject
	}
	if s.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*s.MinItems))
	}
	if s.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*s.MaxItems))
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = toGenaiSchema(p)
		}
	}
	return out
}
