package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ClientInput is the writable part of a client. created_by is not part of
// it: the creator is stamped from the caller and never changes.
type ClientInput struct {
	Name    string `json:"client_name" validate:"required,max=255"`
	Email   string `json:"client_email"`
	Phone   string `json:"client_phone" validate:"max=15"`
	Address string `json:"address" validate:"required"`
}

// ClientPatch is a partial ClientInput; nil fields are kept.
type ClientPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// ClientDetail is a client together with its creator, if still present.
type ClientDetail struct {
	Client  *models.Client
	Creator *models.User
}

type ClientService struct {
	repomanager repomanager.RepositoryManager
	guard       *guard.Guard
	logger      logging.Logger
}

func NewClientService(m repomanager.RepositoryManager, g *guard.Guard, logger logging.Logger) *ClientService {
	return &ClientService{repomanager: m, guard: g, logger: logger.With("module", "clients")}
}

func (in *ClientInput) normalize() *common.ValidationError {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	verr := checkStruct(in)
	if msg := emailProblem(in.Email); msg != "" {
		verr.Add("client_email", msg)
	}
	return verr
}

func clientWriteError(err error) error {
	if errors.Is(err, common.ErrDuplicateEmail) {
		return common.NewValidationError("client_email", "client with this client email already exists.")
	}
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	return fmt.Errorf("error writing client: %w", err)
}

// detail resolves creators for clients with one user lookup.
func (s *ClientService) detail(ctx context.Context, clients ...*models.Client) ([]ClientDetail, error) {
	var ids []string
	for _, c := range clients {
		if c.CreatedBy != nil {
			ids = append(ids, *c.CreatedBy)
		}
	}
	creators, err := usersByID(ctx, s.repomanager, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ClientDetail, 0, len(clients))
	for _, c := range clients {
		d := ClientDetail{Client: c}
		if c.CreatedBy != nil {
			d.Creator = creators[*c.CreatedBy]
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *ClientService) one(ctx context.Context, c *models.Client) (*ClientDetail, error) {
	d, err := s.detail(ctx, c)
	if err != nil {
		return nil, err
	}
	return &d[0], nil
}

func (s *ClientService) List(ctx context.Context, caller *auth.Caller) ([]ClientDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	clients, err := s.repomanager.Clients(s.repomanager.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}
	return s.detail(ctx, clients...)
}

func (s *ClientService) Get(ctx context.Context, caller *auth.Caller, id string) (*ClientDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	c, err := s.repomanager.Clients(s.repomanager.DB()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, c)
}

// Create stores a new client stamped with the caller as creator.
func (s *ClientService) Create(ctx context.Context, caller *auth.Caller, in ClientInput) (*ClientDetail, error) {
	createdBy, err := s.guard.Stamp(caller)
	if err != nil {
		return nil, err
	}
	if err := errOrNil(in.normalize()); err != nil {
		return nil, err
	}

	c, err := s.repomanager.Clients(s.repomanager.DB()).Create(ctx, &models.Client{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedBy: createdBy,
	})
	if err != nil {
		return nil, clientWriteError(err)
	}

	s.logger.Info(ctx, "client created", "client_id", c.ID, "by", caller.UserID)
	return s.one(ctx, c)
}

// Update replaces the writable fields of client id.
func (s *ClientService) Update(ctx context.Context, caller *auth.Caller, id string, in ClientInput) (*ClientDetail, error) {
	return s.update(ctx, caller, id, func(*models.Client) ClientInput { return in })
}

// Patch changes the non-nil fields of client id.
func (s *ClientService) Patch(ctx context.Context, caller *auth.Caller, id string, p ClientPatch) (*ClientDetail, error) {
	return s.update(ctx, caller, id, func(cur *models.Client) ClientInput {
		in := ClientInput{Name: cur.Name, Email: cur.Email, Phone: cur.Phone, Address: cur.Address}
		if p.Name != nil {
			in.Name = *p.Name
		}
		if p.Email != nil {
			in.Email = *p.Email
		}
		if p.Phone != nil {
			in.Phone = *p.Phone
		}
		if p.Address != nil {
			in.Address = *p.Address
		}
		return in
	})
}

func (s *ClientService) update(ctx context.Context, caller *auth.Caller, id string, merge func(*models.Client) ClientInput) (*ClientDetail, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}

	repo := s.repomanager.Clients(s.repomanager.DB())
	cur, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CanMutate(caller, cur.CreatedBy); err != nil {
		return nil, err
	}

	in := merge(cur)
	if err := errOrNil(in.normalize()); err != nil {
		return nil, err
	}

	cur.Name, cur.Email, cur.Phone, cur.Address = in.Name, in.Email, in.Phone, in.Address
	updated, err := repo.Update(ctx, cur)
	if err != nil {
		return nil, clientWriteError(err)
	}
	return s.one(ctx, updated)
}

// Delete removes client id and, with it, all of its projects.
func (s *ClientService) Delete(ctx context.Context, caller *auth.Caller, id string) error {
	if err := s.guard.Require(caller); err != nil {
		return err
	}

	repo := s.repomanager.Clients(s.repomanager.DB())
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
		return fmt.Errorf("error deleting client: %w", err)
	}
	s.logger.Info(ctx, "client deleted", "client_id", id, "by", caller.UserID)
	return nil
}

// usersByID loads the distinct users among ids, keyed by id. Missing ids
// are absent from the map.
func usersByID(ctx context.Context, m repomanager.RepositoryManager, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := m.Users(m.DB()).GetByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
