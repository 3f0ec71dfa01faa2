package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreNamespaceIsolation(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "chat-a", []Item{
		{ID: "chat-a-0", Vector: []float32{1, 0, 0}, Text: "alpha", SourceDocID: "doc-a"},
		{ID: "chat-a-1", Vector: []float32{0, 1, 0}, Text: "beta", SourceDocID: "doc-a"},
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, "chat-b", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = store.Query(ctx, "chat-a", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "alpha", matches[0].Text)
}

func TestMemStoreIdempotentUpsert(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	items := make([]Item, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, Item{
			ID:     fmt.Sprintf("chat-a-%d", i),
			Vector: []float32{float32(i), 1, 0},
			Text:   fmt.Sprintf("chunk %d", i),
		})
	}
	n, err := store.Upsert(ctx, "chat-a", items)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	// Same ids again: overwrite, no duplication.
	n, err = store.Upsert(ctx, "chat-a", items)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 5, store.Count("chat-a"))

	matches, err := store.Query(ctx, "chat-a", []float32{1, 1, 0}, 100)
	require.NoError(t, err)
	require.Len(t, matches, 5)
}

func TestMemStoreTopKOrdering(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "ns", []Item{
		{ID: "far", Vector: []float32{0, 1}, Text: "far"},
		{ID: "near", Vector: []float32{1, 0.01}, Text: "near"},
		{ID: "mid", Vector: []float32{1, 1}, Text: "mid"},
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, "ns", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "near", matches[0].Text)
	require.Equal(t, "mid", matches[1].Text)
	require.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestMemStoreDeleteNamespaceIdempotent(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Deleting a namespace that never existed is a no-op.
	require.NoError(t, store.DeleteNamespace(ctx, "never-indexed"))

	_, err := store.Upsert(ctx, "ns", []Item{{ID: "a", Vector: []float32{1}, Text: "a"}})
	require.NoError(t, err)
	require.NoError(t, store.DeleteNamespace(ctx, "ns"))
	require.NoError(t, store.DeleteNamespace(ctx, "ns"))

	matches, err := store.Query(ctx, "ns", []float32{1}, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}
