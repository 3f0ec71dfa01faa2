package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/filestore"
	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/pkg/errs"
	"github.com/documind/documind/internal/repo"
	"github.com/documind/documind/internal/vector"
)

const indexingTimeout = 10 * time.Minute

type ChatService struct {
	chats    *repo.ChatRepo
	messages *repo.MessageRepo
	shares   *repo.ShareRepo
	files    filestore.Store
	vectors  vector.Store
	indexer  *IndexingService
}

func NewChatService(chats *repo.ChatRepo, messages *repo.MessageRepo, shares *repo.ShareRepo,
	files filestore.Store, vectors vector.Store, indexer *IndexingService) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		shares:   shares,
		files:    files,
		vectors:  vectors,
		indexer:  indexer,
	}
}

func (s *ChatService) Create(ctx context.Context, userID, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Chat"
	}
	chat := &model.Chat{
		ID:     newID(),
		UserID: userID,
		Title:  title,
		Ctime:  time.Now().UnixMilli(),
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) List(ctx context.Context, userID string) ([]model.Chat, error) {
	return s.chats.ListByUser(ctx, userID)
}

func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*model.Chat, []model.Message, error) {
	chat, err := s.owned(ctx, userID, chatID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.List(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

// Delete removes the chat, its stored file and its vector namespace. The
// file and namespace cleanups are best-effort: failures are logged, the
// chat row deletion is never held back by them.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	chat, err := s.owned(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", chatID))
	if chat.File != nil && s.files != nil {
		if err := s.files.Delete(ctx, chat.File.FileKey); err != nil {
			logger.Warn("delete stored file failed", zap.Error(err))
		}
	}
	if s.vectors != nil {
		if err := s.vectors.DeleteNamespace(ctx, chatID); err != nil {
			logger.Warn("delete vector namespace failed", zap.Error(err))
		}
	}
	return nil
}

// AttachFile stores the uploaded document, records its metadata on the chat
// and kicks off indexing in the background. The upload succeeds even when
// indexing is not configured or later fails; the file row's index_state
// carries the outcome.
func (s *ChatService) AttachFile(ctx context.Context, userID, chatID, originalName string, data []byte) (*model.ChatFile, error) {
	if _, err := s.owned(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errs.ErrInvalid
	}
	key := newID() + strings.ToLower(path.Ext(originalName))
	if err := s.files.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	file := &model.ChatFile{
		ChatID:       chatID,
		FileKey:      key,
		OriginalName: originalName,
		Size:         int64(len(data)),
		IndexState:   model.IndexStatePending,
		UploadedAt:   time.Now().UnixMilli(),
	}
	if err := s.chats.SetFile(ctx, file); err != nil {
		return nil, err
	}

	// Fire-and-forget relative to the upload response. The background
	// retry job catches anything that dies with the process.
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), indexingTimeout)
		defer cancel()
		if err := s.indexer.IndexChatFile(bg, file); err != nil {
			logutil.GetLogger(bg).Warn("background indexing failed",
				zap.String("chat_id", chatID), zap.Error(err))
		}
	}()
	return file, nil
}

func (s *ChatService) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.files.Open(ctx, key)
}

// CreateShare snapshots the chat and returns a public id for the link.
func (s *ChatService) CreateShare(ctx context.Context, userID, chatID string) (string, error) {
	chat, err := s.owned(ctx, userID, chatID)
	if err != nil {
		return "", err
	}
	messages, err := s.messages.List(ctx, chatID)
	if err != nil {
		return "", err
	}
	snapshot, err := json.Marshal(model.ShareSnapshot{Title: chat.Title, Messages: messages})
	if err != nil {
		return "", err
	}
	share := &model.SharedChat{
		PublicID: newToken(),
		ChatID:   chatID,
		Title:    chat.Title,
		Snapshot: string(snapshot),
		Ctime:    time.Now().UnixMilli(),
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return "", err
	}
	return share.PublicID, nil
}

func (s *ChatService) GetShared(ctx context.Context, publicID string) (*model.ShareSnapshot, error) {
	share, err := s.shares.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	var snapshot model.ShareSnapshot
	if err := json.Unmarshal([]byte(share.Snapshot), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ConsumeShare clones a shared snapshot into a fresh chat owned by the
// consuming user. The clone carries the messages only; the document and
// its vectors stay with the original chat.
func (s *ChatService) ConsumeShare(ctx context.Context, userID, publicID string) (*model.Chat, error) {
	snapshot, err := s.GetShared(ctx, publicID)
	if err != nil {
		return nil, err
	}
	chat, err := s.Create(ctx, userID, snapshot.Title)
	if err != nil {
		return nil, err
	}
	for _, msg := range snapshot.Messages {
		if _, err := s.messages.Append(ctx, chat.ID, msg.Role, msg.Text); err != nil {
			return nil, err
		}
	}
	return chat, nil
}

func (s *ChatService) owned(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, errs.ErrForbidden
	}
	return chat, nil
}
