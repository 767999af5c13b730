// Package repomanager provides the RepositoryManager for PostgreSQL,
// wiring together repository constructors, transactions and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vanish/internal/dbx"
	"github.com/dmitrijs2005/vanish/internal/server/migrations"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/events"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/grants"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/media"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/reports"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// postgresRepos binds every repository to one DBTX.
type postgresRepos struct {
	db dbx.DBTX
}

func (r postgresRepos) Media() media.Repository     { return media.NewPostgresRepository(r.db) }
func (r postgresRepos) Grants() grants.Repository   { return grants.NewPostgresRepository(r.db) }
func (r postgresRepos) Events() events.Repository   { return events.NewPostgresRepository(r.db) }
func (r postgresRepos) Reports() reports.Repository { return reports.NewPostgresRepository(r.db) }

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	postgresRepos
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// WithTx runs fn in a READ COMMITTED transaction. Grant rows are locked with
// SELECT ... FOR UPDATE inside fn; serialization failures and deadlocks
// rerun fn from scratch.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithRetryTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepos{db: tx})
	})
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{postgresRepos: postgresRepos{db: db}, db: db}, nil
}

// Open connects to dsn with the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresRepositoryManager(db)
}
