package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

type ClientRepository struct {
	s *Store
}

func (r *ClientRepository) emailTaken(email, exceptID string) bool {
	for _, c := range r.s.clients {
		if c.Email == email && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(client.Email, "") {
		return nil, common.ErrDuplicateEmail
	}
	if client.CreatedBy != nil {
		if _, ok := r.s.users[*client.CreatedBy]; !ok {
			return nil, common.ErrNotFound
		}
	}
	now := r.s.now()
	client.CreatedAt, client.UpdatedAt = now, now
	r.s.clients[client.ID] = copyClient(client)
	return client, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyClient(c), nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		result = append(result, copyClient(c))
	}
	sortByCreated(result, func(c *models.Client) (time.Time, string) { return c.CreatedAt, c.ID })
	return result, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.clients[client.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if r.emailTaken(client.Email, client.ID) {
		return nil, common.ErrDuplicateEmail
	}

	stored.Name = client.Name
	stored.Email = client.Email
	stored.Phone = client.Phone
	stored.Address = client.Address
	stored.UpdatedAt = r.s.now()

	return copyClient(stored), nil
}

// Delete removes the client together with its projects.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.clients, id)

	for pid, p := range r.s.projects {
		if p.ClientID != nil && *p.ClientID == id {
			delete(r.s.projects, pid)
		}
	}
	return nil
}
