package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	batchCalls int
	embedded   int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.batchCalls++
	e.embedded += len(texts)
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, []float32{float32(len(text))})
	}
	return out, nil
}

func (e *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedder_HitSkipsInner(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.batchCalls)
}

func TestCachedEmbedder_TaskTypeSeparatesEntries(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.batchCalls)
}

func TestCachedEmbedder_BatchFillsMissesOnly(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "alpha", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(context.Background(), []string{"alpha", "beta", "gamma"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, vec := range vecs {
		require.NotEmpty(t, vec)
	}
	// only beta and gamma go to the backend
	require.Equal(t, 3, inner.embedded)
}
