package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// VertexGemini talks to Gemini through Vertex AI with application default
// credentials.
type VertexGemini struct {
	client      *vertexgenai.Client
	modelName   string
	temperature float32
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-001"
	}
	return &VertexGemini{client: c, modelName: modelName, temperature: 0.4}, nil
}

func (v *VertexGemini) Name() string { return "vertex" }

func (v *VertexGemini) Close() error { return v.client.Close() }

// model builds a fresh handle per call; GenerativeModel carries mutable config.
func (v *VertexGemini) model(system string) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(v.temperature)
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	}
	return m
}

func (v *VertexGemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	return v.collect(ctx, v.model(system), prompt)
}

func (v *VertexGemini) GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error) {
	if schema == nil {
		return "", ErrNoSchema
	}
	m := v.model(system)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toVertexSchema(schema)
	return v.collect(ctx, m, prompt)
}

// collect drains the response stream into one string.
func (v *VertexGemini) collect(ctx context.Context, m *vertexgenai.GenerativeModel, prompt string) (string, error) {
	var b strings.Builder
	it := m.GenerateContentStream(ctx, vertexgenai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func toVertexSchema(s *Schema) *vertexgenai.Schema {
	if s == nil {
		return nil
	}
	out := &vertexgenai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toVertexSchema(s.Items),
	}
	switch s.Type {
	case TypeString:
		out.Type = vertexgenai.TypeString
	case TypeNumber:
		out.Type = vertexgenai.TypeNumber
	case TypeInteger:
		out.Type = vertexgenai.TypeInteger
	case TypeBoolean:
		out.Type = vertexgenai.TypeBoolean
	case TypeArray:
		out.Type = vertexgenai.TypeArray
	case TypeObject:
		out.Type = vertexgenai.TypeObject
	}
	if s.Minimum != nil {
		out.Minimum = *s.Minimum
	}
	if s.Maximum != nil {
		out.Maximum = *s.Maximum
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = toVertexSchema(p)
		}
	}
	return out
}
