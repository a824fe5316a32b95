package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaJSON(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"score": {Type: TypeInteger, Minimum: Float(0), Maximum: Float(100)},
			"tags":  {Type: TypeArray, Items: &Schema{Type: TypeString}, MinItems: Int(1)},
		},
		Required: []string{"score"},
	}
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	props := doc["properties"].(map[string]any)
	score := props["score"].(map[string]any)
	assert.Equal(t, float64(100), score["maximum"])
	tags := props["tags"].(map[string]any)
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])
	assert.Equal(t, float64(1), tags["minItems"])
}

func TestProviderSchemaConversion(t *testing.T) {
	s := &Schema{
		Type:     TypeObject,
		Required: []string{"a"},
		Properties: map[string]*Schema{
			"a": {Type: TypeNumber, Maximum: Float(5)},
		},
	}
	v := toVertexSchema(s)
	assert.Equal(t, float64(5), v.Properties["a"].Maximum)
	assert.Equal(t, []string{"a"}, v.Required)

	g := toGenaiSchema(s)
	require.NotNil(t, g.Properties["a"].Maximum)
	assert.Equal(t, float64(5), *g.Properties["a"].Maximum)
}

func TestTrimToObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, trimToObject("Here:\n```json\n{\"a\":1}\n```"))
	assert.Equal(t, "no json", trimToObject("no json"))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "watson"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "vertex"})
	assert.Error(t, err)

	p, err := New(context.Background(), Config{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}
