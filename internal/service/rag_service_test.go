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
	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/vector"
)

type memMessages struct {
	nextID   int64
	messages map[string][]model.Message
}

func newMemMessages() *memMessages {
	return &memMessages{messages: make(map[string][]model.Message)}
}

func (m *memMessages) Append(ctx context.Context, chatID, role, text string) (*model.Message, error) {
	m.nextID++
	msg := model.Message{ID: m.nextID, ChatID: chatID, Role: role, Text: text}
	m.messages[chatID] = append(m.messages[chatID], msg)
	return &msg, nil
}

func (m *memMessages) ListRecent(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	history := m.messages[chatID]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (m *memMessages) byRole(chatID, role string) []model.Message {
	var out []model.Message
	for _, msg := range m.messages[chatID] {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

type fakeGenerator struct {
	answer     string
	err        error
	deltas     []string
	streamErr  error
	lastSystem string
	calls      int
}

func (g *fakeGenerator) Generate(ctx context.Context, system string, turns []ai.Turn) (string, error) {
	g.calls++
	g.lastSystem = system
	return g.answer, g.err
}

func (g *fakeGenerator) GenerateStream(ctx context.Context, system string, turns []ai.Turn) (<-chan ai.StreamChunk, error) {
	g.calls++
	g.lastSystem = system
	ch := make(chan ai.StreamChunk)
	go func() {
		defer close(ch)
		for _, delta := range g.deltas {
			ch <- ai.StreamChunk{Delta: delta}
		}
		if g.streamErr != nil {
			ch <- ai.StreamChunk{Err: g.streamErr}
		}
	}()
	return ch, nil
}

func newTestRAG(gen ai.IGenerator, store vector.Store, messages MessageStore) *RAGService {
	return NewRAGService(gen, &fakeEmbedder{}, store, messages, config.RetrievalConfig{
		TopK:          10,
		HistoryWindow: 12,
	})
}

func seededStore(t *testing.T, chatID string, texts ...string) *vector.MemStore {
	t.Helper()
	store := vector.NewMemStore()
	embedder := &fakeEmbedder{}
	items := make([]vector.Item, 0, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(context.Background(), text, "RETRIEVAL_DOCUMENT")
		require.NoError(t, err)
		items = append(items, vector.Item{
			ID:     fmt.Sprintf("%s-%04d", chatID, i),
			Vector: vec,
			Text:   text,
		})
	}
	_, err := store.Upsert(context.Background(), chatID, items)
	require.NoError(t, err)
	return store
}

func TestHandleTurn_Success(t *testing.T) {
	store := seededStore(t, "chat1", "Beta is a test placeholder.")
	messages := newMemMessages()
	gen := &fakeGenerator{answer: "Beta is a test placeholder."}
	svc := newTestRAG(gen, store, messages)

	assistant, err := svc.HandleTurn(context.Background(), "chat1", "What is Beta?")
	require.NoError(t, err)
	require.Equal(t, model.RoleAssistant, assistant.Role)
	require.Equal(t, "Beta is a test placeholder.", assistant.Text)

	// retrieved chunk text reaches the grounding instruction
	require.Contains(t, gen.lastSystem, "Beta is a test placeholder.")
	require.Contains(t, gen.lastSystem, RefusalAnswer)

	require.Len(t, messages.byRole("chat1", model.RoleUser), 1)
	require.Len(t, messages.byRole("chat1", model.RoleAssistant), 1)
}

func TestHandleTurn_EmptyNamespace_StillPrompts(t *testing.T) {
	messages := newMemMessages()
	gen := &fakeGenerator{answer: RefusalAnswer}
	svc := newTestRAG(gen, vector.NewMemStore(), messages)

	assistant, err := svc.HandleTurn(context.Background(), "chat1", "What is Beta?")
	require.NoError(t, err)
	require.Equal(t, RefusalAnswer, assistant.Text)
	require.Contains(t, gen.lastSystem, RefusalAnswer)
}

func TestHandleTurn_GenerationFailure_NoAssistantPersisted(t *testing.T) {
	messages := newMemMessages()
	gen := &fakeGenerator{err: errors.New("model offline")}
	svc := newTestRAG(gen, vector.NewMemStore(), messages)

	_, err := svc.HandleTurn(context.Background(), "chat1", "hello")
	require.ErrorIs(t, err, ErrGenerationFailed)

	require.Len(t, messages.byRole("chat1", model.RoleUser), 1)
	require.Empty(t, messages.byRole("chat1", model.RoleAssistant))
}

func TestHandleTurn_NotConfigured(t *testing.T) {
	svc := newTestRAG(nil, vector.NewMemStore(), newMemMessages())

	_, err := svc.HandleTurn(context.Background(), "chat1", "hello")
	require.ErrorIs(t, err, ai.ErrUnavailable)
}

func newKeylessRAG(t *testing.T, messages MessageStore) *RAGService {
	t.Helper()
	provider, err := ai.NewProvider("gemini", config.AIConfig{Provider: "gemini"})
	require.NoError(t, err)
	return NewRAGService(
		ai.NewGenerator(provider, "gemini-2.0-flash"),
		ai.NewEmbedder(provider, "text-embedding-004"),
		vector.NewMemStore(),
		messages,
		config.RetrievalConfig{TopK: 10, HistoryWindow: 12},
	)
}

func TestHandleTurn_KeylessProvider_FailsFastNothingPersisted(t *testing.T) {
	messages := newMemMessages()
	svc := newKeylessRAG(t, messages)

	_, err := svc.HandleTurn(context.Background(), "chat1", "hello")
	require.ErrorIs(t, err, ai.ErrUnavailable)
	require.Empty(t, messages.messages["chat1"])
}

func TestHandleTurnStream_KeylessProvider_FailsFastNothingPersisted(t *testing.T) {
	messages := newMemMessages()
	svc := newKeylessRAG(t, messages)

	_, err := svc.HandleTurnStream(context.Background(), "chat1", "hello")
	require.ErrorIs(t, err, ai.ErrUnavailable)
	require.Empty(t, messages.messages["chat1"])
}

func TestHandleTurnStream_AssistantEqualsDeltas(t *testing.T) {
	messages := newMemMessages()
	gen := &fakeGenerator{deltas: []string{"Beta ", "is a ", "test placeholder."}}
	svc := newTestRAG(gen, vector.NewMemStore(), messages)

	events, err := svc.HandleTurnStream(context.Background(), "chat1", "What is Beta?")
	require.NoError(t, err)

	var sb strings.Builder
	var final *model.Message
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Message != nil {
			final = ev.Message
			continue
		}
		sb.WriteString(ev.Delta)
	}
	require.NotNil(t, final)
	require.Equal(t, sb.String(), final.Text)
	require.Equal(t, "Beta is a test placeholder.", final.Text)

	assistants := messages.byRole("chat1", model.RoleAssistant)
	require.Len(t, assistants, 1)
	require.Equal(t, final.Text, assistants[0].Text)
}

func TestHandleTurnStream_MidStreamError_DiscardsPartial(t *testing.T) {
	messages := newMemMessages()
	gen := &fakeGenerator{deltas: []string{"Beta "}, streamErr: errors.New("stream cut")}
	svc := newTestRAG(gen, vector.NewMemStore(), messages)

	events, err := svc.HandleTurnStream(context.Background(), "chat1", "What is Beta?")
	require.NoError(t, err)

	var streamErr error
	for ev := range events {
		if ev.Err != nil {
			streamErr = ev.Err
		}
	}
	require.ErrorIs(t, streamErr, ErrGenerationFailed)
	require.Empty(t, messages.byRole("chat1", model.RoleAssistant))
}

func TestHandleTurn_RewriteUsedForFollowUp(t *testing.T) {
	messages := newMemMessages()
	_, err := messages.Append(context.Background(), "chat1", model.RoleUser, "What is Beta?")
	require.NoError(t, err)
	_, err = messages.Append(context.Background(), "chat1", model.RoleAssistant, "Beta is a test placeholder.")
	require.NoError(t, err)

	gen := &fakeGenerator{answer: "Standalone answer."}
	svc := newTestRAG(gen, vector.NewMemStore(), messages)

	_, err = svc.HandleTurn(context.Background(), "chat1", "and what else?")
	require.NoError(t, err)
	// one call for the rewrite, one for the answer
	require.Equal(t, 2, gen.calls)
}
