// Package repomanager vends repository implementations for a storage
// backend and runs units of work against it, optionally transactionally.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/clients"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a database handle. Services pass
// DB() for single statements and the handle given to WithTx's callback for
// multi-statement work.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	DB() dbx.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
	Clients(db dbx.DBTX) clients.Repository
	Projects(db dbx.DBTX) projects.Repository
	Close() error
}
