// Package services contains server-side business logic: the credential
// store (UserService), the auth flows (AuthService) and the client, project
// and attachment services. Every operation that needs an identity takes an
// explicit *auth.Caller.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// NewUser is the input to UserService.Create. An empty Password creates
// an account that cannot log in until a password is set.
type NewUser struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	// IsActive defaults to true when nil.
	IsActive *bool `json:"is_active"`
	IsStaff  bool  `json:"is_staff"`
	IsAdmin  bool  `json:"-"`
}

// UserUpdate carries the profile fields to change; nil fields are kept.
type UserUpdate struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name" validate:"omitnil,max=50"`
	LastName  *string `json:"last_name" validate:"omitnil,max=50"`
	IsActive  *bool   `json:"is_active"`
	IsStaff   *bool   `json:"is_staff"`
}

// UserService is the credential store. Passwords are only ever stored as
// argon2id hashes.
type UserService struct {
	repomanager repomanager.RepositoryManager
	guard       *guard.Guard
	hasher      *cryptox.Hasher
	logger      logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, g *guard.Guard, hasher *cryptox.Hasher, logger logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		guard:       g,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
	}
}

func (s *UserService) hashPassword(password string) (string, error) {
	if password == "" {
		return cryptox.Unusable(), nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Create normalizes the email, rejects invalid or taken addresses and
// stores the user with a hashed password. New users are active unless
// in.IsActive says otherwise.
func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if msg := emailProblem(email); msg != "" {
		return nil, invalidEmail("email", msg)
	}

	verr := checkStruct(in)
	if in.Password != "" && len(in.Password) < common.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", common.MinPasswordLength))
	}
	if err := errOrNil(verr); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     active,
		IsStaff:      in.IsStaff,
		IsAdmin:      in.IsAdmin,
	}

	u, err := s.repomanager.Users(s.repomanager.DB()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID, "staff", u.IsStaff, "admin", u.IsAdmin)
	return u, nil
}

// CreateSuperuser creates a staff admin account. A password is required.
func (s *UserService) CreateSuperuser(ctx context.Context, in NewUser) (*models.User, error) {
	if in.Password == "" {
		return nil, common.NewValidationError("password", msgRequired)
	}
	in.IsStaff = true
	in.IsAdmin = true
	return s.Create(ctx, in)
}

// Verify returns the active user matching email and password, or nil when
// there is none. Unknown emails, wrong passwords and inactive accounts are
// indistinguishable to the caller and cost one hash verification each.
// Only store failures return an error.
func (s *UserService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, nil
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !cryptox.IsUsable(user.PasswordHash) {
		s.hasher.VerifyDummy(password)
		return nil, nil
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// ChangePassword re-hashes and stores newPassword for user. The write only
// succeeds while the stored hash still equals user.PasswordHash; otherwise
// common.ErrVersionConflict is returned. On success user.PasswordHash is
// updated, which invalidates every reset token issued before.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, newPassword string) error {
	if len(newPassword) < common.MinPasswordLength {
		return common.NewValidationError("password",
			fmt.Sprintf("Ensure this field has at least %d characters.", common.MinPasswordLength))
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.repomanager.Users(s.repomanager.DB()).UpdatePasswordHash(ctx, user.ID, user.PasswordHash, hash)
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("error updating password: %w", err)
	}

	user.PasswordHash = hash
	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// GetByID loads a user without an access check. Internal callers only.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, id)
}

// GetByEmail loads a user by already normalized email without an access
// check. Internal callers only.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.DB()).GetByEmail(ctx, email)
}

func (s *UserService) Get(ctx context.Context, caller *auth.Caller, id string) (*models.User, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, caller *auth.Caller) ([]*models.User, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.repomanager.DB()).List(ctx)
}

// CreateAs is Create on behalf of an authenticated caller.
func (s *UserService) CreateAs(ctx context.Context, caller *auth.Caller, in NewUser) (*models.User, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	if in.IsStaff {
		if err := s.guard.CanGrantStaff(caller); err != nil {
			return nil, err
		}
	}
	in.IsAdmin = false
	return s.Create(ctx, in)
}

// Update applies the non-nil fields of in to user id. A user counts as the
// creator of their own account for the mutation policy.
func (s *UserService) Update(ctx context.Context, caller *auth.Caller, id string, in UserUpdate) (*models.User, error) {
	if err := s.guard.CanMutate(caller, &id); err != nil {
		return nil, err
	}
	if in.IsStaff != nil {
		if err := s.guard.CanGrantStaff(caller); err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Users(s.repomanager.DB())
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := checkStruct(in)
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if msg := emailProblem(email); msg != "" {
			return nil, invalidEmail("email", msg)
		}
		user.Email = email
	}
	if err := errOrNil(verr); err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		user.IsStaff = *in.IsStaff
	}

	updated, err := repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return updated, nil
}

// Delete removes user id. Their clients and projects stay, with created_by
// cleared.
func (s *UserService) Delete(ctx context.Context, caller *auth.Caller, id string) error {
	if err := s.guard.CanMutate(caller, &id); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.repomanager.DB()).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id, "by", caller.UserID)
	return nil
}
