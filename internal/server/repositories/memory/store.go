// Package memory is an in-process backend for the user, client and project
// repositories. It mirrors the constraints of the SQL schema: unique user
// and client emails, client deletion cascading to its projects, and user
// deletion clearing created_by and memberships.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

// Store holds all records behind one lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	clients  map[string]*models.Client
	projects map[string]*models.Project

	// txMu serializes WithTx callers.
	txMu sync.Mutex

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		clients:  make(map[string]*models.Client),
		projects: make(map[string]*models.Project),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Lock and Unlock serialize transactions against each other. Single calls
// outside a transaction are still atomic on their own.
func (s *Store) Lock()   { s.txMu.Lock() }
func (s *Store) Unlock() { s.txMu.Unlock() }

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Clients() *ClientRepository   { return &ClientRepository{s: s} }
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyClient(c *models.Client) *models.Client {
	cp := *c
	cp.CreatedBy = copyStr(c.CreatedBy)
	return &cp
}

func copyProject(p *models.Project) *models.Project {
	cp := *p
	cp.ClientID = copyStr(p.ClientID)
	cp.CreatedBy = copyStr(p.CreatedBy)
	cp.WorkingUserIDs = append([]string{}, p.WorkingUserIDs...)
	return &cp
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
