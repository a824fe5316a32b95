package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI covers api.openai.com, Azure OpenAI and compatible endpoints.
type OpenAI struct {
	client *openai.Client
	model  string
	name   string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, name: "openai"}
}

// NewAzureOpenAI expects model to be the deployment name.
func NewAzureOpenAI(apiKey, endpoint, model string) *OpenAI {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, name: "azure"}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	return o.complete(ctx, o.request(system, prompt))
}

func (o *OpenAI) GenerateJSON(ctx context.Context, system, prompt string, schema *Schema) (string, error) {
	if schema == nil {
		return "", ErrNoSchema
	}
	req := o.request(system, prompt)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "response",
			Schema: schema,
			Strict: false,
		},
	}
	return o.complete(ctx, req)
}

func (o *OpenAI) request(system, prompt string) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	return openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: 0.4,
	}
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
