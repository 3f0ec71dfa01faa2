package vector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// PGStore keeps chunk vectors in the chat_chunks table with a pgvector
// column. Namespace isolation is a WHERE clause on the composite key.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Upsert(ctx context.Context, namespace string, items []Item) (int, error) {
	const query = `
		INSERT INTO chat_chunks (namespace, chunk_id, content, source_doc_id, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (namespace, chunk_id) DO UPDATE SET
			content = EXCLUDED.content,
			source_doc_id = EXCLUDED.source_doc_id,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	now := time.Now().UnixMilli()
	count := 0
	for _, item := range items {
		_, err := s.db.ExecContext(ctx, query,
			namespace,
			item.ID,
			item.Text,
			item.SourceDocID,
			pgvector.NewVector(item.Vector),
			now,
		)
		if err != nil {
			return count, fmt.Errorf("upsert chunk %s: %w", item.ID, err)
		}
		count++
	}
	return count, nil
}

func (s *PGStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	const query = `
		SELECT content, source_doc_id, 1 - (embedding <=> $2) AS score
		FROM chat_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, namespace, pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Text, &m.SourceDocID, &m.Score); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return matches, nil
}

func (s *PGStore) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_chunks WHERE namespace = $1`, namespace)
	return err
}
