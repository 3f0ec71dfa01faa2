package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/documind/documind/internal/model"
)

// MessageRepo is the append-only conversation store. Messages are never
// edited; ordering follows insertion order as serialized by the database.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Append(ctx context.Context, chatID, role, text string) (*model.Message, error) {
	const query = `
		INSERT INTO chat_messages (chat_id, role, text, ctime)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	msg := &model.Message{
		ChatID: chatID,
		Role:   role,
		Text:   text,
		Ctime:  time.Now().UnixMilli(),
	}
	if err := r.db.QueryRowContext(ctx, query, chatID, role, text, msg.Ctime).Scan(&msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListRecent returns the last limit messages in chronological order.
func (r *MessageRepo) ListRecent(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	const query = `
		SELECT id, chat_id, role, text, ctime
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Text, &msg.Ctime); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepo) List(ctx context.Context, chatID string) ([]model.Message, error) {
	const query = `
		SELECT id, chat_id, role, text, ctime
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Text, &msg.Ctime); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
