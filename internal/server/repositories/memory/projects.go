package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

type ProjectRepository struct {
	s *Store
}

// checkRefs validates the foreign keys of p. Callers hold s.mu.
func (r *ProjectRepository) checkRefs(p *models.Project) error {
	if p.ClientID != nil {
		if _, ok := r.s.clients[*p.ClientID]; !ok {
			return fmt.Errorf("project client: %w", common.ErrNotFound)
		}
	}
	for _, uid := range p.WorkingUserIDs {
		if _, ok := r.s.users[uid]; !ok {
			return fmt.Errorf("working user %s: %w", uid, common.ErrNotFound)
		}
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(project); err != nil {
		return nil, err
	}

	stored := copyProject(project)
	stored.WorkingUserIDs = dedupe(stored.WorkingUserIDs)
	stored.CreatedAt = r.s.now()
	r.s.projects[stored.ID] = stored
	return copyProject(stored), nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyProject(p), nil
}

func (r *ProjectRepository) filter(keep func(*models.Project) bool) []*models.Project {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.Project, 0)
	for _, p := range r.s.projects {
		if keep(p) {
			result = append(result, copyProject(p))
		}
	}
	sortByCreated(result, func(p *models.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	return result
}

func (r *ProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	return r.filter(func(*models.Project) bool { return true }), nil
}

func (r *ProjectRepository) ListByMember(ctx context.Context, userID string) ([]*models.Project, error) {
	return r.filter(func(p *models.Project) bool {
		return slices.Contains(p.WorkingUserIDs, userID)
	}), nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.projects[project.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if err := r.checkRefs(project); err != nil {
		return nil, err
	}

	stored.Name = project.Name
	stored.Description = project.Description
	stored.ClientID = copyStr(project.ClientID)
	stored.WorkingUserIDs = dedupe(project.WorkingUserIDs)

	return copyProject(stored), nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}
