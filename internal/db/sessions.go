package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jamie/scholarship-tailor/internal/session"
)

// Store adapts DB to the session.Store interface.
type Store struct {
	db *DB
}

// NewStore wraps an open database connection as a session store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

var _ session.Store = (*Store)(nil)

// Create inserts a new session. The version starts at 1; every guarded
// update increments it.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	sess.UpdatedAt = sess.CreatedAt
	sess.Version = 1

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO sessions (id, resume_session_id, owner_id, scholarship_url, stage, status, version, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		sess.ID, sess.ResumeSessionID, sess.OwnerID, sess.ScholarshipURL,
		string(sess.Stage), string(sess.Status), sess.Version, data, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var data []byte
	var version int
	var updatedAt time.Time

	err := s.db.pool.QueryRow(ctx,
		`SELECT data, version, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&data, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	// The row's version and timestamp are authoritative over the document.
	sess.Version = version
	sess.UpdatedAt = updatedAt
	return &sess, nil
}

// Update writes a session back under the compare-and-set guard: the row's
// version must still match the version the caller read. A lost race
// returns session.ErrConcurrentModification.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	expected := sess.Version
	sess.Version = expected + 1
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		sess.Version = expected
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tag, err := s.db.pool.Exec(ctx,
		`UPDATE sessions
		 SET stage = $1, status = $2, version = $3, data = $4, updated_at = $5
		 WHERE id = $6 AND version = $7`,
		string(sess.Stage), string(sess.Status), sess.Version, data, sess.UpdatedAt,
		sess.ID, expected,
	)
	if err != nil {
		sess.Version = expected
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		sess.Version = expected
		var exists bool
		if err := s.db.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, sess.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		if !exists {
			return session.ErrNotFound
		}
		return session.ErrConcurrentModification
	}
	return nil
}

// ListByResumeSession returns history summaries for all sessions under a
// resume session, newest first.
func (s *Store) ListByResumeSession(ctx context.Context, resumeSessionID string) ([]session.Summary, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT data FROM sessions
		 WHERE resume_session_id = $1
		 ORDER BY created_at DESC`,
		resumeSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var sess session.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		out = append(out, sess.Summary())
	}
	return out, rows.Err()
}
