package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return nil, common.ErrDuplicateEmail
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = copyUser(user)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.User
	for _, id := range dedupe(ids) {
		if u, ok := r.s.users[id]; ok {
			result = append(result, copyUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		result = append(result, copyUser(u))
	}
	sortByCreated(result, func(u *models.User) (t time.Time, id string) { return u.CreatedAt, u.ID })
	return result, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return nil, common.ErrDuplicateEmail
	}

	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.IsActive = user.IsActive
	stored.IsStaff = user.IsStaff
	stored.UpdatedAt = r.s.now()

	user.CreatedAt, user.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return user, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok || stored.PasswordHash != oldHash {
		return common.ErrVersionConflict
	}
	stored.PasswordHash = newHash
	stored.UpdatedAt = r.s.now()
	return nil
}

// Delete removes the user, clears created_by on their clients and projects
// and drops their project memberships.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)

	for _, c := range r.s.clients {
		if c.CreatedBy != nil && *c.CreatedBy == id {
			c.CreatedBy = nil
		}
	}
	for _, p := range r.s.projects {
		if p.CreatedBy != nil && *p.CreatedBy == id {
			p.CreatedBy = nil
		}
		members := p.WorkingUserIDs[:0]
		for _, m := range p.WorkingUserIDs {
			if m != id {
				members = append(members, m)
			}
		}
		p.WorkingUserIDs = members
	}
	return nil
}
