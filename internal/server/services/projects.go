package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ProjectInput is the writable part of a project. The client and working
// users are referenced by id.
type ProjectInput struct {
	Name           string   `json:"project_name" validate:"required,max=255"`
	Description    string   `json:"project_description" validate:"required"`
	ClientID       *string  `json:"project_client" validate:"omitnil,uuid"`
	WorkingUserIDs []string `json:"working_users" validate:"dive,uuid"`
}

// ProjectPatch is a partial ProjectInput. ClientSet distinguishes an
// explicit null client from an absent one.
type ProjectPatch struct {
	Name           *string
	Description    *string
	ClientSet      bool
	ClientID       *string
	WorkingUserIDs *[]string
}

// ProjectDetail is a project with its client, creator and working users
// resolved.
type ProjectDetail struct {
	Project      *models.Project
	Client       *models.Client
	Creator      *models.User
	WorkingUsers []*models.User
}

type ProjectService struct {
	repomanager repomanager.RepositoryManager
	guard       *guard.Guard
	logger      logging.Logger
}

func NewProjectService(m repomanager.RepositoryManager, g *guard.Guard, logger logging.Logger) *ProjectService {
	return &ProjectService{repomanager: m, guard: g, logger: logger.With("module", "projects")}
}

func (in *ProjectInput) normalize() *common.ValidationError {
	in.Name = strings.TrimSpace(in.Name)
	in.WorkingUserIDs = dedupe(in.WorkingUserIDs)
	return checkStruct(in)
}

// checkRefs reports unknown client and user ids as field errors.
func (s *ProjectService) checkRefs(ctx context.Context, db dbx.DBTX, in *ProjectInput) error {
	verr := &common.ValidationError{}

	if in.ClientID != nil {
		_, err := s.repomanager.Clients(db).GetByID(ctx, *in.ClientID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			verr.Add("project_client", fmt.Sprintf("Invalid pk %q - object does not exist.", *in.ClientID))
		case err != nil:
			return fmt.Errorf("error loading client: %w", err)
		}
	}

	if len(in.WorkingUserIDs) > 0 {
		found, err := s.repomanager.Users(db).GetByIDs(ctx, in.WorkingUserIDs)
		if err != nil {
			return fmt.Errorf("error loading users: %w", err)
		}
		known := make(map[string]bool, len(found))
		for _, u := range found {
			known[u.ID] = true
		}
		for _, id := range in.WorkingUserIDs {
			if !known[id] {
				verr.Add("working_users", fmt.Sprintf("Invalid pk %q - object does not exist.", id))
			}
		}
	}

	return errOrNil(verr)
}

func projectWriteError(err error) error {
	var verr *common.ValidationError
	if errors.As(err, &verr) || errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrForbidden) {
		return err
	}
	return fmt.Errorf("error writing project: %w", err)
}

func (s *ProjectService) detail(ctx context.Context, projects ...*models.Project) ([]ProjectDetail, error) {
	var userIDs []string
	clientIDs := map[string]*models.Client{}
	for _, p := range projects {
		if p.CreatedBy != nil {
			userIDs = append(userIDs, *p.CreatedBy)
		}
		userIDs = append(userIDs, p.WorkingUserIDs...)
		if p.ClientID != nil {
			clientIDs[*p.ClientID] = nil
		}
	}

	users, err := usersByID(ctx, s.repomanager, userIDs)
	if err != nil {
		return nil, err
	}
	clients := s.repomanager.Clients(s.repomanager.DB())
	for id := range clientIDs {
		c, err := clients.GetByID(ctx, id)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("error loading client: %w", err)
		}
		clientIDs[id] = c
	}

	out := make([]ProjectDetail, 0, len(projects))
	for _, p := range projects {
		d := ProjectDetail{Project: p, WorkingUsers: []*models.User{}}
		if p.CreatedBy != nil {
			d.Creator = users[*p.CreatedBy]
		}
		if p.ClientID != nil {
			d.Client = clientIDs[*p.ClientID]
		}
		for _, id := range p.WorkingUserIDs {
			if u, ok := users[id]; ok {
				d.WorkingUsers = append(d.WorkingUsers, u)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *ProjectService) one(ctx context.Context, p *models.Project) (*ProjectDetail, error) {
	d, err := s.detail(ctx, p)
	if err != nil {
		return nil, err
	}
	return &d[0], nil
}

func (s *ProjectService) List(ctx context.Context, caller *auth.Caller) ([]ProjectDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	projects, err := s.repomanager.Projects(s.repomanager.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return s.detail(ctx, projects...)
}

// ListMine returns the projects the caller is a working user on.
func (s *ProjectService) ListMine(ctx context.Context, caller *auth.Caller) ([]ProjectDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	projects, err := s.repomanager.Projects(s.repomanager.DB()).ListByMember(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return s.detail(ctx, projects...)
}

func (s *ProjectService) Get(ctx context.Context, caller *auth.Caller, id string) (*ProjectDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	p, err := s.repomanager.Projects(s.repomanager.DB()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, p)
}

// Create stores a project stamped with the caller as creator.
func (s *ProjectService) Create(ctx context.Context, caller *auth.Caller, in ProjectInput) (*ProjectDetail, error) {
	createdBy, err := s.guard.Stamp(caller)
	if err != nil {
		return nil, err
	}
	if err := errOrNil(in.normalize()); err != nil {
		return nil, err
	}

	var created *models.Project
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkRefs(ctx, tx, &in); err != nil {
			return err
		}
		var err error
		created, err = s.repomanager.Projects(tx).Create(ctx, &models.Project{
			ID:             uuid.NewString(),
			Name:           in.Name,
			Description:    in.Description,
			ClientID:       in.ClientID,
			WorkingUserIDs: in.WorkingUserIDs,
			CreatedBy:      createdBy,
		})
		return err
	})
	if err != nil {
		return nil, projectWriteError(err)
	}

	s.logger.Info(ctx, "project created", "project_id", created.ID, "by", caller.UserID)
	return s.one(ctx, created)
}

// Update replaces the writable fields of project id.
func (s *ProjectService) Update(ctx context.Context, caller *auth.Caller, id string, in ProjectInput) (*ProjectDetail, error) {
	return s.update(ctx, caller, id, func(*models.Project) ProjectInput { return in })
}

// Patch changes the fields set in p.
func (s *ProjectService) Patch(ctx context.Context, caller *auth.Caller, id string, p ProjectPatch) (*ProjectDetail, error) {
	return s.update(ctx, caller, id, func(cur *models.Project) ProjectInput {
		in := ProjectInput{
			Name:           cur.Name,
			Description:    cur.Description,
			ClientID:       cur.ClientID,
			WorkingUserIDs: cur.WorkingUserIDs,
		}
		if p.Name != nil {
			in.Name = *p.Name
		}
		if p.Description != nil {
			in.Description = *p.Description
		}
		if p.ClientSet {
			in.ClientID = p.ClientID
		}
		if p.WorkingUserIDs != nil {
			in.WorkingUserIDs = *p.WorkingUserIDs
		}
		return in
	})
}

func (s *ProjectService) update(ctx context.Context, caller *auth.Caller, id string, merge func(*models.Project) ProjectInput) (*ProjectDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}

	var updated *models.Project
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)
		cur, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guard.CanMutate(caller, cur.CreatedBy); err != nil {
			return err
		}

		in := merge(cur)
		if err := errOrNil(in.normalize()); err != nil {
			return err
		}
		if err := s.checkRefs(ctx, tx, &in); err != nil {
			return err
		}

		cur.Name, cur.Description = in.Name, in.Description
		cur.ClientID, cur.WorkingUserIDs = in.ClientID, in.WorkingUserIDs
		updated, err = repo.Update(ctx, cur)
		return err
	})
	if err != nil {
		return nil, projectWriteError(err)
	}
	return s.one(ctx, updated)
}

func (s *ProjectService) Delete(ctx context.Context, caller *auth.Caller, id string) error {
	if err := s.guard.Require(caller); err != nil {
		return err
	}

	repo := s.repomanager.Projects(s.repomanager.DB())
	cur, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.CanMutate(caller, cur.CreatedBy); err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("error deleting project: %w", err)
	}
	s.logger.Info(ctx, "project deleted", "project_id", id, "by", caller.UserID)
	return nil
}
