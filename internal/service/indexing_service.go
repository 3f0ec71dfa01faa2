package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/ai"
	"github.com/documind/documind/internal/chunker"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/filestore"
	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/repo"
	"github.com/documind/documind/internal/vector"
)

const embedBatchSize = 100

// IndexingError reports a pipeline failure together with the number of
// chunks already upserted. Partial progress is kept, never rolled back;
// a later re-index overwrites the same deterministic chunk ids.
type IndexingError struct {
	Indexed int
	Err     error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed after %d chunks: %v", e.Indexed, e.Err)
}

func (e *IndexingError) Unwrap() error {
	return e.Err
}

type IndexingService struct {
	embedder ai.IEmbedder
	vectors  vector.Store
	chats    *repo.ChatRepo
	files    filestore.Store
	splitCfg chunker.Config
}

func NewIndexingService(embedder ai.IEmbedder, vectors vector.Store, chats *repo.ChatRepo, files filestore.Store, cfg config.RetrievalConfig) *IndexingService {
	return &IndexingService{
		embedder: embedder,
		vectors:  vectors,
		chats:    chats,
		files:    files,
		splitCfg: chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
	}
}

func (s *IndexingService) Configured() bool {
	return s != nil && s.embedder != nil && s.vectors != nil
}

// IndexDocument ingests one document into the chat's vector namespace.
// Chunk ids derive from the chat id and chunk index, so indexing the same
// document twice yields the same ids and the upsert overwrites in place.
func (s *IndexingService) IndexDocument(ctx context.Context, chatID string, data []byte, filename string) (int, error) {
	if !s.Configured() {
		return 0, ai.ErrUnavailable
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", chatID), zap.String("file", filename))

	text, err := extract.Text(data, filename)
	if err != nil {
		return 0, err
	}
	chunks, err := chunker.Split(text, s.splitCfg)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		logger.Info("document produced no chunks")
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, 0, len(batch))
		for _, c := range batch {
			texts = append(texts, c.Text)
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return indexed, &IndexingError{Indexed: indexed, Err: fmt.Errorf("embed batch: %w", err)}
		}
		items := make([]vector.Item, 0, len(batch))
		for i, c := range batch {
			items = append(items, vector.Item{
				ID:          fmt.Sprintf("%s-%04d", chatID, c.Index),
				Vector:      vecs[i],
				Text:        c.Text,
				SourceDocID: filename,
			})
		}
		n, err := s.vectors.Upsert(ctx, chatID, items)
		indexed += n
		if err != nil {
			return indexed, &IndexingError{Indexed: indexed, Err: fmt.Errorf("upsert chunks: %w", err)}
		}
	}
	logger.Info("document indexed", zap.Int("chunks", indexed))
	return indexed, nil
}

// IndexChatFile loads a chat's stored document and runs the pipeline,
// recording the outcome on the file row. Missing AI configuration leaves
// the row pending so the retry job picks it up once configured; the upload
// itself is never failed for that reason.
func (s *IndexingService) IndexChatFile(ctx context.Context, file *model.ChatFile) error {
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", file.ChatID), zap.String("file_key", file.FileKey))
	if !s.Configured() {
		logger.Warn("indexing skipped: ai provider or vector store not configured")
		return ai.ErrUnavailable
	}
	reader, err := s.files.Open(ctx, file.FileKey)
	if err != nil {
		s.markFailed(ctx, file.ChatID, 0)
		return fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		s.markFailed(ctx, file.ChatID, 0)
		return fmt.Errorf("read stored file: %w", err)
	}

	count, err := s.IndexDocument(ctx, file.ChatID, data, file.OriginalName)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return err
		}
		logger.Error("indexing failed", zap.Int("indexed", count), zap.Error(err))
		s.markFailed(ctx, file.ChatID, count)
		return err
	}
	if s.chats != nil {
		if err := s.chats.SetFileIndexState(ctx, file.ChatID, model.IndexStateIndexed, count); err != nil {
			return fmt.Errorf("record index state: %w", err)
		}
	}
	return nil
}

func (s *IndexingService) markFailed(ctx context.Context, chatID string, count int) {
	if s.chats == nil {
		return
	}
	if err := s.chats.SetFileIndexState(ctx, chatID, model.IndexStateFailed, count); err != nil {
		logutil.GetLogger(ctx).Error("record failed index state", zap.String("chat_id", chatID), zap.Error(err))
	}
}

// RetryUnindexed re-runs the pipeline for files still pending or failed.
func (s *IndexingService) RetryUnindexed(ctx context.Context, limit int) error {
	if s.chats == nil {
		return nil
	}
	if !s.Configured() {
		return nil
	}
	files, err := s.chats.ListUnindexedFiles(ctx, limit)
	if err != nil {
		return err
	}
	for i := range files {
		if err := s.IndexChatFile(ctx, &files[i]); err != nil {
			logutil.GetLogger(ctx).Warn("retry indexing failed",
				zap.String("chat_id", files[i].ChatID), zap.Error(err))
		}
	}
	return nil
}
