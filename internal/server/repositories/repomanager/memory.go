package repomanager

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/clients"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/memory"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves every repository from one memory.Store.
// The DBTX arguments are ignored. WithTx serializes callers but does not
// roll back; each repository call validates before it mutates.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) DB() dbx.DBTX {
	return nil
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.store.Lock()
	defer m.store.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *InMemoryRepositoryManager) Clients(dbx.DBTX) clients.Repository {
	return m.store.Clients()
}

func (m *InMemoryRepositoryManager) Projects(dbx.DBTX) projects.Repository {
	return m.store.Projects()
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
