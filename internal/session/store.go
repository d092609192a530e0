package session

import (
	"context"

	"github.com/google/uuid"
)

// Store is durable keyed storage for sessions and their owned artifacts.
// Update applies a compare-and-set guard on Session.Version: the write
// succeeds only if the stored version still matches the one the caller
// read, otherwise ErrConcurrentModification is returned. This stops two
// concurrent resumptions of the same session from double-executing a
// stage. On success the store increments the caller's Version.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	ListByResumeSession(ctx context.Context, resumeSessionID string) ([]Summary, error)
}
