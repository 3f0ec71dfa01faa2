package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/documind/documind/internal/ai"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/vector"
)

type fakeEmbedder struct {
	calls   int
	failOn  int // 1-based call number to fail on, 0 never
	lastTyp string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	f.lastTyp = taskType
	if f.failOn > 0 && f.calls >= f.failOn {
		return nil, errors.New("embed backend down")
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, []float32{float32(len(text)), 1, 0})
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type failingStore struct {
	*vector.MemStore
	failAfter int // upsert this many items, then fail
}

func (s *failingStore) Upsert(ctx context.Context, namespace string, items []vector.Item) (int, error) {
	if s.failAfter < len(items) {
		n, _ := s.MemStore.Upsert(ctx, namespace, items[:s.failAfter])
		return n, errors.New("store unavailable")
	}
	return s.MemStore.Upsert(ctx, namespace, items)
}

func testDocument(paragraphs int) []byte {
	var sb strings.Builder
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&sb, "Paragraph %d talks about the documind retrieval pipeline in some detail, repeating enough words to fill a realistic chunk of extracted text.\n\n", i)
	}
	return []byte(sb.String())
}

func newTestIndexer(embedder ai.IEmbedder, store vector.Store) *IndexingService {
	return NewIndexingService(embedder, store, nil, nil, config.RetrievalConfig{
		ChunkSize:    200,
		ChunkOverlap: 40,
	})
}

func TestIndexDocument_EndToEnd(t *testing.T) {
	store := vector.NewMemStore()
	embedder := &fakeEmbedder{}
	svc := newTestIndexer(embedder, store)

	count, err := svc.IndexDocument(context.Background(), "chat1", testDocument(10), "doc.txt")
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 2)
	require.Equal(t, count, store.Count("chat1"))
	require.Equal(t, "RETRIEVAL_DOCUMENT", embedder.lastTyp)

	// an exhaustive query surfaces the indexed text
	queryVec, err := embedder.Embed(context.Background(), "Paragraph 0", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	matches, err := store.Query(context.Background(), "chat1", queryVec, count)
	require.NoError(t, err)
	require.Len(t, matches, count)
	found := false
	for _, m := range matches {
		if strings.Contains(m.Text, "Paragraph 0") {
			found = true
			break
		}
	}
	require.True(t, found)
}

func TestIndexDocument_Reindex_Idempotent(t *testing.T) {
	store := vector.NewMemStore()
	svc := newTestIndexer(&fakeEmbedder{}, store)

	first, err := svc.IndexDocument(context.Background(), "chat1", testDocument(10), "doc.txt")
	require.NoError(t, err)
	second, err := svc.IndexDocument(context.Background(), "chat1", testDocument(10), "doc.txt")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, first, store.Count("chat1"))
}

func TestIndexDocument_PartialFailure_KeepsProgress(t *testing.T) {
	store := &failingStore{MemStore: vector.NewMemStore(), failAfter: 3}
	svc := newTestIndexer(&fakeEmbedder{}, store)

	count, err := svc.IndexDocument(context.Background(), "chat1", testDocument(10), "doc.txt")
	require.Error(t, err)
	var idxErr *IndexingError
	require.ErrorAs(t, err, &idxErr)
	require.Equal(t, 3, count)
	require.Equal(t, 3, idxErr.Indexed)
	require.Equal(t, 3, store.MemStore.Count("chat1"))
}

func TestIndexDocument_EmbedFailure(t *testing.T) {
	store := vector.NewMemStore()
	svc := newTestIndexer(&fakeEmbedder{failOn: 1}, store)

	count, err := svc.IndexDocument(context.Background(), "chat1", testDocument(10), "doc.txt")
	require.Error(t, err)
	require.Zero(t, count)
	require.Zero(t, store.Count("chat1"))
}

func TestIndexDocument_NotConfigured(t *testing.T) {
	svc := newTestIndexer(nil, nil)

	_, err := svc.IndexDocument(context.Background(), "chat1", testDocument(2), "doc.txt")
	require.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestIndexDocument_UnsupportedFormat(t *testing.T) {
	svc := newTestIndexer(&fakeEmbedder{}, vector.NewMemStore())

	_, err := svc.IndexDocument(context.Background(), "chat1", []byte("binary"), "doc.exe")
	require.Error(t, err)
}
