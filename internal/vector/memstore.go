package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemStore is an in-process Store used by tests and single-node dev setups.
type MemStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Item
}

func NewMemStore() *MemStore {
	return &MemStore{namespaces: make(map[string]map[string]Item)}
}

func (s *MemStore) Upsert(ctx context.Context, namespace string, items []Item) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]Item)
		s.namespaces[namespace] = ns
	}
	for _, item := range items {
		ns[item.ID] = item
	}
	return len(items), nil
}

func (s *MemStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	_ = ctx
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns := s.namespaces[namespace]
	matches := make([]Match, 0, len(ns))
	for _, item := range ns {
		matches = append(matches, Match{
			Score:       cosineSimilarity(vec, item.Vector),
			Text:        item.Text,
			SourceDocID: item.SourceDocID,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemStore) DeleteNamespace(ctx context.Context, namespace string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

// Count reports how many items a namespace holds. Test helper.
func (s *MemStore) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
