package repo

import (
	"context"

	"github.com/hamed0406/craftwatch/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.

type ServerStore interface {
	Add(ctx context.Context, s *domain.Server) error
	List(ctx context.Context) ([]domain.Server, error)
	// GetByID returns nil, nil when the server does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Server, error)
	// Delete removes the server and cascades to its ping history; no
	// observation survives its server.
	Delete(ctx context.Context, id int64) error
}

type ResultStore interface {
	// Append stores one probe outcome. The store assigns the row id and
	// the pinged_at timestamp at append time and writes them back into r.
	Append(ctx context.Context, r *domain.PingResult) (int64, error)
	// History returns rows in ascending pinged_at order, ties broken by
	// id (append order). sinceID keeps rows with a strictly greater id;
	// windowSeconds keeps rows no older than now minus the window.
	// sinceID takes precedence when both are set.
	History(ctx context.Context, serverID int64, sinceID *int64, windowSeconds *int64) ([]domain.PingResult, error)
	// Last returns the most recent row for a server, or nil, nil when
	// the server has no history yet.
	Last(ctx context.Context, serverID int64) (*domain.PingResult, error)
}
