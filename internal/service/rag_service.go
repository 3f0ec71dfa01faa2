package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/ai"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/vector"
)

// RefusalAnswer is the fixed sentence the model is instructed to return
// when the retrieved context does not contain the answer.
const RefusalAnswer = "I could not find the answer in the provided document."

const contextSeparator = "\n\n---\n\n"

const rewriteInstruction = `You are a query rewriting expert. Based on the provided chat history, rephrase the "Follow Up user Question" into a complete, standalone question that can be understood without the chat history. Only output the rewritten question and nothing else.`

const answerInstructionFormat = `You are a helpful document assistant. You will be given a context of relevant information and a user question. Your task is to answer the user's question based ONLY on the provided context. If the answer is not in the context, you must say "%s" Keep your answers clear, concise, and educational.

Context: %s`

var (
	ErrRetrievalFailed  = errors.New("context retrieval failed")
	ErrGenerationFailed = errors.New("model generation failed")
)

// StreamEvent is one event of a streamed turn: a text delta, the final
// persisted assistant message, or a terminal error. The channel closes
// after the terminal event.
type StreamEvent struct {
	Delta   string
	Message *model.Message
	Err     error
}

// MessageStore is the slice of the conversation store the turn pipeline
// needs: ordered append and a bounded read-back window.
type MessageStore interface {
	Append(ctx context.Context, chatID, role, text string) (*model.Message, error)
	ListRecent(ctx context.Context, chatID string, limit int) ([]model.Message, error)
}

type RAGService struct {
	generator     ai.IGenerator
	embedder      ai.IEmbedder
	vectors       vector.Store
	messages      MessageStore
	topK          int
	historyWindow int
}

func NewRAGService(generator ai.IGenerator, embedder ai.IEmbedder, vectors vector.Store, messages MessageStore, cfg config.RetrievalConfig) *RAGService {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 12
	}
	return &RAGService{
		generator:     generator,
		embedder:      embedder,
		vectors:       vectors,
		messages:      messages,
		topK:          topK,
		historyWindow: window,
	}
}

func (s *RAGService) Configured() bool {
	return s != nil && s.generator != nil && s.embedder != nil && s.vectors != nil
}

// HandleTurn runs one blocking turn: rewrite, retrieve, persist the user
// message, generate, persist exactly one assistant message. On generation
// failure nothing is persisted beyond the user message; the orphaned user
// turn is a visible failure state, not hidden behind a sentinel reply.
func (s *RAGService) HandleTurn(ctx context.Context, chatID, text string) (*model.Message, error) {
	system, turns, err := s.prepare(ctx, chatID, text)
	if err != nil {
		return nil, err
	}
	answer, err := s.generator.Generate(ctx, system, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	assistant, err := s.messages.Append(ctx, chatID, model.RoleAssistant, answer)
	if err != nil {
		return nil, err
	}
	return assistant, nil
}

// HandleTurnStream runs one turn in streaming form. Deltas are forwarded
// as they arrive; the assistant message is written once, atomically, after
// the stream completes. A mid-stream error discards the accumulated text.
func (s *RAGService) HandleTurnStream(ctx context.Context, chatID, text string) (<-chan StreamEvent, error) {
	system, turns, err := s.prepare(ctx, chatID, text)
	if err != nil {
		return nil, err
	}
	stream, err := s.generator.GenerateStream(ctx, system, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		var sb strings.Builder
		for chunk := range stream {
			if chunk.Err != nil {
				logutil.GetLogger(ctx).Error("generation stream failed",
					zap.String("chat_id", chatID), zap.Error(chunk.Err))
				s.emit(ctx, events, StreamEvent{Err: fmt.Errorf("%w: %v", ErrGenerationFailed, chunk.Err)})
				return
			}
			sb.WriteString(chunk.Delta)
			if !s.emit(ctx, events, StreamEvent{Delta: chunk.Delta}) {
				return
			}
		}
		if ctx.Err() != nil {
			// Client abandoned the stream; nothing is persisted mid-flight.
			return
		}
		assistant, err := s.messages.Append(ctx, chatID, model.RoleAssistant, sb.String())
		if err != nil {
			s.emit(ctx, events, StreamEvent{Err: err})
			return
		}
		s.emit(ctx, events, StreamEvent{Message: assistant})
	}()
	return events, nil
}

// prepare runs the shared head of both turn forms: config check, rewrite,
// query embedding and retrieval, then user message persistence. The user
// message is written only once retrieval has succeeded, so a misconfigured
// or failing pipeline leaves the conversation untouched.
func (s *RAGService) prepare(ctx context.Context, chatID, text string) (string, []ai.Turn, error) {
	if !s.Configured() {
		return "", nil, ai.ErrUnavailable
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", chatID))

	history, err := s.messages.ListRecent(ctx, chatID, s.historyWindow)
	if err != nil {
		return "", nil, err
	}

	question := s.rewrite(ctx, history, text)

	queryVec, err := s.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: embed query: %v", ErrRetrievalFailed, err)
	}
	matches, err := s.vectors.Query(ctx, chatID, queryVec, s.topK)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	retrieved := contextFromMatches(matches)
	logger.Debug("context retrieved",
		zap.Int("matches", len(matches)), zap.Int("context_chars", len(retrieved)))

	if _, err := s.messages.Append(ctx, chatID, model.RoleUser, text); err != nil {
		return "", nil, err
	}

	system := fmt.Sprintf(answerInstructionFormat, RefusalAnswer, retrieved)
	turns := buildTurns(history, question)
	return system, turns, nil
}

// rewrite turns a follow-up utterance into a standalone question. This is
// a best-effort quality step: any failure falls back to the raw utterance.
func (s *RAGService) rewrite(ctx context.Context, history []model.Message, text string) string {
	if len(history) == 0 {
		return text
	}
	rewritten, err := s.generator.Generate(ctx, rewriteInstruction, buildTurns(history, text))
	if err != nil {
		logutil.GetLogger(ctx).Warn("query rewrite failed, using original text", zap.Error(err))
		return text
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return text
	}
	return rewritten
}

func (s *RAGService) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func buildTurns(history []model.Message, final string) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history)+1)
	for _, msg := range history {
		turns = append(turns, ai.Turn{Role: msg.Role, Text: msg.Text})
	}
	turns = append(turns, ai.Turn{Role: model.RoleUser, Text: final})
	return turns
}

// contextFromMatches joins retrieved chunk texts with a visible separator.
// Matches without text are dropped; an empty result leaves the grounding
// instruction to trigger the refusal answer.
func contextFromMatches(matches []vector.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, contextSeparator)
}
