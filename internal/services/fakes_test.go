package services

import (
	"context"
	"io"
	"sync"

	"github.com/yoockh/yoodefence/internal/providers/llm"
)

type fakeLLM struct {
	mu      sync.Mutex
	text    string
	json    string
	err     error
	calls   int
	prompts []string
	schemas []*llm.Schema
}

func (f *fakeLLM) Generate(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _, prompt string, schema *llm.Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.json, f.err
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }

type fakeBlobs struct {
	deleted []string
}

func (b *fakeBlobs) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "https://blobs.test/" + name, err
}

func (b *fakeBlobs) Delete(_ context.Context, name string) error {
	b.deleted = append(b.deleted, name)
	return nil
}
