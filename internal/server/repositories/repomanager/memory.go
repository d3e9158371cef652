package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recyclequest/internal/dbx"
	"github.com/dmitrijs2005/recyclequest/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-process user directory and
// ignores the DBTX it is given. Used when the server runs without a
// database and in service tests.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
