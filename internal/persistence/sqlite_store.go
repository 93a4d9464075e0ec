package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

// SQLiteStore is a HistoryStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements HistoryStore.
var _ HistoryStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trip_checkpoints (
			conversation_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			state TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (conversation_id, seq)
		);`,
	)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, st *api.TripState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int
	row := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM trip_checkpoints
		WHERE conversation_id = ?`,
		st.ConversationID,
	)
	if err := row.Scan(&seq); err != nil {
		return err
	}
	st.CheckpointSeq = seq + 1

	data, err := EncodeState(st)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trip_checkpoints (conversation_id, seq, state)
		VALUES (?, ?, ?)`,
		st.ConversationID,
		st.CheckpointSeq,
		string(data),
	); err != nil {
		return err
	}

	// A failed commit must not corrupt the previously persisted
	// checkpoint; the insert-only layout guarantees that.
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context, conversationID string) (*api.TripState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT state FROM trip_checkpoints
		WHERE conversation_id = ?
		ORDER BY seq DESC
		LIMIT 1`,
		conversationID,
	)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return DecodeState([]byte(data))
}

func (s *SQLiteStore) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM trip_checkpoints WHERE conversation_id = ?`,
		conversationID,
	)
	return err
}

func (s *SQLiteStore) LoadVersion(ctx context.Context, conversationID string, seq int) (*api.TripState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT state FROM trip_checkpoints
		WHERE conversation_id = ? AND seq = ?`,
		conversationID, seq,
	)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if exists, existsErr := s.conversationExists(ctx, conversationID); existsErr == nil && !exists {
				return nil, ErrConversationNotFound
			}
			return nil, ErrCheckpointNotFound
		}
		return nil, err
	}
	return DecodeState([]byte(data))
}

func (s *SQLiteStore) ListVersions(ctx context.Context, conversationID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq FROM trip_checkpoints
		WHERE conversation_id = ?
		ORDER BY seq ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, ErrConversationNotFound
	}
	return seqs, nil
}

func (s *SQLiteStore) conversationExists(ctx context.Context, conversationID string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trip_checkpoints WHERE conversation_id = ?`,
		conversationID,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check conversation: %w", err)
	}
	return count > 0, nil
}
