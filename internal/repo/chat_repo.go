package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/pkg/dbutil"
	"github.com/documind/documind/internal/pkg/errs"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	data := map[string]interface{}{
		"id":      chat.ID,
		"user_id": chat.UserID,
		"title":   chat.Title,
		"ctime":   chat.Ctime,
	}
	query, args, err := builder.BuildInsert("chats", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID string) ([]model.Chat, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	query, args, err := builder.BuildSelect("chats", where, []string{"id", "user_id", "title", "ctime"})
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chats []model.Chat
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Ctime); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachFiles(ctx, chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepo) Get(ctx context.Context, id string) (*model.Chat, error) {
	const query = `SELECT id, user_id, title, ctime FROM chats WHERE id = $1`
	var chat model.Chat
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	file, err := r.GetFile(ctx, id)
	if err != nil && err != errs.ErrNotFound {
		return nil, err
	}
	chat.File = file
	return &chat, nil
}

// Delete removes the chat row together with its messages and file record.
// Vector namespace and stored file cleanup belong to the service layer.
func (r *ChatRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_files WHERE chat_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit()
}

func (r *ChatRepo) SetFile(ctx context.Context, file *model.ChatFile) error {
	const query = `
		INSERT INTO chat_files (chat_id, file_key, original_name, size, index_state, chunk_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chat_id) DO UPDATE SET
			file_key = EXCLUDED.file_key,
			original_name = EXCLUDED.original_name,
			size = EXCLUDED.size,
			index_state = EXCLUDED.index_state,
			chunk_count = EXCLUDED.chunk_count,
			uploaded_at = EXCLUDED.uploaded_at
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ChatID, file.FileKey, file.OriginalName, file.Size,
		file.IndexState, file.ChunkCount, file.UploadedAt)
	return err
}

func (r *ChatRepo) GetFile(ctx context.Context, chatID string) (*model.ChatFile, error) {
	const query = `
		SELECT chat_id, file_key, original_name, size, index_state, chunk_count, uploaded_at
		FROM chat_files WHERE chat_id = $1
	`
	var file model.ChatFile
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&file.ChatID, &file.FileKey, &file.OriginalName, &file.Size,
		&file.IndexState, &file.ChunkCount, &file.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *ChatRepo) SetFileIndexState(ctx context.Context, chatID, state string, chunkCount int) error {
	const query = `UPDATE chat_files SET index_state = $2, chunk_count = $3 WHERE chat_id = $1`
	_, err := r.db.ExecContext(ctx, query, chatID, state, chunkCount)
	return err
}

// ListUnindexedFiles returns file records still waiting for a successful
// indexing run, oldest first. Used by the background retry job.
func (r *ChatRepo) ListUnindexedFiles(ctx context.Context, limit int) ([]model.ChatFile, error) {
	const query = `
		SELECT chat_id, file_key, original_name, size, index_state, chunk_count, uploaded_at
		FROM chat_files
		WHERE index_state IN ($1, $2)
		ORDER BY uploaded_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, model.IndexStatePending, model.IndexStateFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []model.ChatFile
	for rows.Next() {
		var file model.ChatFile
		if err := rows.Scan(&file.ChatID, &file.FileKey, &file.OriginalName, &file.Size,
			&file.IndexState, &file.ChunkCount, &file.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (r *ChatRepo) attachFiles(ctx context.Context, chats []model.Chat) error {
	for i := range chats {
		file, err := r.GetFile(ctx, chats[i].ID)
		if err != nil {
			if err == errs.ErrNotFound {
				continue
			}
			return fmt.Errorf("load file for chat %s: %w", chats[i].ID, err)
		}
		chats[i].File = file
	}
	return nil
}
