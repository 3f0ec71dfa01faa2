package vector

import (
	"context"
	"errors"
)

var ErrQueryFailed = errors.New("vector query failed")

// Item is one embedded chunk to be stored under a namespace. IDs are
// deterministic per document so re-indexing overwrites instead of
// duplicating.
type Item struct {
	ID          string
	Vector      []float32
	Text        string
	SourceDocID string
}

// Match is one retrieval result, best score first when returned from Query.
type Match struct {
	Score       float32
	Text        string
	SourceDocID string
}

// Store is a namespace-scoped vector index. A namespace equals a chat id;
// queries against one namespace must never see another namespace's items.
type Store interface {
	Upsert(ctx context.Context, namespace string, items []Item) (int, error)
	Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}
