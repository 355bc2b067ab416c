// Package clients persists customer records.
package clients

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, client *models.Client) (*models.Client, error)
	GetByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	// Update writes name, email, phone and address. CreatedBy is never
	// written after Create.
	Update(ctx context.Context, client *models.Client) (*models.Client, error)
	Delete(ctx context.Context, id string) error
}
