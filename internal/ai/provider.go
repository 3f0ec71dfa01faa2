package ai

import (
	"context"
	"fmt"
	"strings"
)

// Turn is one entry of a two-party conversation transcript. Role is either
// "user" or "assistant"; providers map these onto their own role names.
// System-level instructions never travel inside the transcript.
type Turn struct {
	Role string
	Text string
}

// StreamChunk is one event of a streamed generation: a text delta, or a
// terminal error. The producing channel is closed after the final event.
type StreamChunk struct {
	Delta string
	Err   error
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, system string, turns []Turn) (string, error)
	GenerateStream(ctx context.Context, model string, system string, turns []Turn) (<-chan StreamChunk, error)
	EmbedBatch(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, system string, turns []Turn) (string, error)
	GenerateStream(ctx context.Context, system string, turns []Turn) (<-chan StreamChunk, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	return g.provider.Generate(ctx, g.model, system, turns)
}

func (g *generator) GenerateStream(ctx context.Context, system string, turns []Turn) (<-chan StreamChunk, error) {
	return g.provider.GenerateStream(ctx, g.model, system, turns)
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vecs, err := e.provider.EmbedBatch(ctx, e.model, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return e.provider.EmbedBatch(ctx, e.model, texts, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
