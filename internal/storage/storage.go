package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is a persisted game session: which world it runs and the
// engine snapshot taken after the last executed command. The snapshot
// is kept as raw JSON so legacy formats pass through to the world
// package's migration untouched.
type Session struct {
	ID        uuid.UUID       `json:"id"`
	WorldFile string          `json:"world_file"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
}

// Storage persists sessions and serves static world catalogues.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, id uuid.UUID, s *Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	ListWorlds(ctx context.Context) (map[string]string, error)
	GetWorldCatalogue(ctx context.Context, filename string) ([]byte, error)
}
