// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

// Repository is the user store. Emails are stored already normalized; the
// store enforces their uniqueness and reports clashes as
// common.ErrDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update writes the profile fields: email, names, is_active, is_staff.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	// UpdatePasswordHash swaps the hash only if the stored one still equals
	// oldHash, returning common.ErrVersionConflict otherwise.
	UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error
	Delete(ctx context.Context, id string) error
}
