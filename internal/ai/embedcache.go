package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedEmbedder memoizes embeddings by content hash. Identical text always
// maps to the same vector for a fixed model, so caching cannot change
// results, only cost.
type cachedEmbedder struct {
	inner IEmbedder
	cache *expirable.LRU[string, []float32]
}

func NewCachedEmbedder(inner IEmbedder, size int, ttl time.Duration) IEmbedder {
	if size <= 0 {
		size = 10000
	}
	return &cachedEmbedder{
		inner: inner,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (e *cachedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := e.cacheKey(text, taskType)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

func (e *cachedEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := e.cache.Get(e.cacheKey(text, taskType)); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := e.inner.EmbedBatch(ctx, missing, taskType)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		idx := missingIdx[j]
		out[idx] = vec
		e.cache.Add(e.cacheKey(texts[idx], taskType), vec)
	}
	return out, nil
}

func (e *cachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func (e *cachedEmbedder) cacheKey(text, taskType string) string {
	hash := sha256.Sum256([]byte(e.inner.ModelName() + "\x00" + taskType + "\x00" + text))
	return hex.EncodeToString(hash[:])
}
