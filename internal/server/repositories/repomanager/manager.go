package repomanager

import (
	"context"

	"github.com/dmitrijs2005/vanish/internal/server/repositories/events"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/grants"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/media"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/reports"
)

// Repositories is a set of repositories bound to one handle: either the
// pool or a single transaction.
type Repositories interface {
	Media() media.Repository
	Grants() grants.Repository
	Events() events.Repository
	Reports() reports.Repository
}

// RepositoryManager owns the storage backend. Its own Repositories are
// bound to the pool; WithTx hands fn a set bound to one transaction that
// commits when fn returns nil and rolls back otherwise.
type RepositoryManager interface {
	Repositories
	RunMigrations(ctx context.Context) error
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
