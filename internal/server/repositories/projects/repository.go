// Package projects persists projects and their working-user memberships.
package projects

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

// Repository is the project store. Create and Update touch the membership
// table as well and should run inside a transaction.
type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	// ListByMember returns the projects userID is a working user on.
	ListByMember(ctx context.Context, userID string) ([]*models.Project, error)
	// Update writes name, description, client and replaces the working
	// users. CreatedBy is never written after Create.
	Update(ctx context.Context, project *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}
