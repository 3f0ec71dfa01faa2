package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/pkg/dbutil"
	"github.com/documind/documind/internal/pkg/errs"
)

type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

func (r *ShareRepo) Create(ctx context.Context, share *model.SharedChat) error {
	data := map[string]interface{}{
		"public_id": share.PublicID,
		"chat_id":   share.ChatID,
		"title":     share.Title,
		"snapshot":  share.Snapshot,
		"ctime":     share.Ctime,
	}
	query, args, err := builder.BuildInsert("shared_chats", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *ShareRepo) GetByPublicID(ctx context.Context, publicID string) (*model.SharedChat, error) {
	const query = `SELECT public_id, chat_id, title, snapshot, ctime FROM shared_chats WHERE public_id = $1`
	var share model.SharedChat
	err := r.db.QueryRowContext(ctx, query, publicID).Scan(
		&share.PublicID, &share.ChatID, &share.Title, &share.Snapshot, &share.Ctime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &share, nil
}
