package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/mail"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/ratelimit"
)

const (
	resetSubject                = "Reset Your Password"
	msgPasswordChangedMeanwhile = "Password was changed by another request. Please try again."
)

// Mailer queues an email without waiting for delivery.
type Mailer interface {
	Dispatch(ctx context.Context, msg mail.Message)
}

type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password" validate:"required,max=255"`
}

// PasswordInput is a new password with its confirmation.
type PasswordInput struct {
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// AuthService runs the registration, login, password change and password
// reset flows. It keeps no state between requests.
type AuthService struct {
	users   *UserService
	tokens  *auth.TokenService
	resets  *auth.ResetTokenService
	mailer  Mailer
	limiter ratelimit.Limiter

	resetLinkBase string
	logger        logging.Logger
}

func NewAuthService(users *UserService, tokens *auth.TokenService, resets *auth.ResetTokenService,
	mailer Mailer, limiter ratelimit.Limiter, resetLinkBase string, logger logging.Logger) *AuthService {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		resets:        resets,
		mailer:        mailer,
		limiter:       limiter,
		resetLinkBase: strings.TrimRight(resetLinkBase, "/"),
		logger:        logger.With("module", "auth"),
	}
}

// Register validates the input, creates the user and returns a token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *auth.TokenPair, error) {
	verr := checkStruct(in)
	if msg := emailProblem(NormalizeEmail(in.Email)); msg != "" {
		verr.Add("email", msg)
	}
	checkPasswords(verr, in.Password, in.Password2)
	if err := errOrNil(verr); err != nil {
		return nil, nil, err
	}

	user, err := s.users.Create(ctx, NewUser{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return user, pair, nil
}

// Login returns a token pair for valid credentials and
// common.ErrInvalidCredentials for anything else.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*auth.TokenPair, error) {
	verr := checkStruct(in)
	if msg := emailProblem(NormalizeEmail(in.Email)); msg != "" {
		verr.Add("email", msg)
	}
	if err := errOrNil(verr); err != nil {
		return nil, err
	}

	user, err := s.users.Verify(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.NewValidationError("refresh", msgRequired)
	}
	return s.tokens.Refresh(refreshToken)
}

// Authenticate resolves an access token to the active user it was issued
// for. Every failure is common.ErrUnauthenticated, wrapping the cause.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrUnauthenticated)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user inactive", common.ErrUnauthenticated)
	}
	return user, nil
}

// Profile returns the caller's own record.
func (s *AuthService) Profile(ctx context.Context, caller *auth.Caller) (*models.User, error) {
	if !caller.Authenticated() {
		return nil, common.ErrUnauthenticated
	}
	return s.users.GetByID(ctx, caller.UserID)
}

// ChangePassword sets a new password on the caller's own account.
func (s *AuthService) ChangePassword(ctx context.Context, caller *auth.Caller, in PasswordInput) error {
	if !caller.Authenticated() {
		return common.ErrUnauthenticated
	}

	verr := &common.ValidationError{}
	checkPasswords(verr, in.Password, in.Password2)
	if err := errOrNil(verr); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if err := s.users.ChangePassword(ctx, user, in.Password); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return common.NewValidationError(common.NonFieldErrors, msgPasswordChangedMeanwhile)
		}
		return err
	}
	return nil
}

// RequestPasswordReset emails a reset link when email belongs to an active
// user. The outcome is the same whether or not it does; delivery happens in
// the background and is only logged.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if msg := emailProblem(email); msg != "" {
		return common.NewValidationError("email", msg)
	}

	if err := s.limiter.Allow(ctx, strings.ToLower(email)); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("error loading user: %w", err)
	}
	if user == nil || !user.IsActive {
		s.resets.Burn()
		s.logger.Debug(ctx, "password reset requested for unknown or inactive account")
		return nil
	}

	uid, token, err := s.resets.Issue(user)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	link := fmt.Sprintf("%s/%s/%s", s.resetLinkBase, uid, token)
	s.mailer.Dispatch(ctx, mail.Message{
		Subject: resetSubject,
		Body:    "Click the following link to reset your password: " + link,
		To:      user.Email,
	})
	s.logger.Info(ctx, "password reset link issued", "user_id", user.ID)
	return nil
}

// SubmitPasswordReset sets a new password using a reset token. Bad uid,
// bad or expired token and a password changed since issue all yield
// common.ErrTokenInvalid.
func (s *AuthService) SubmitPasswordReset(ctx context.Context, uid, token string, in PasswordInput) error {
	verr := &common.ValidationError{}
	checkPasswords(verr, in.Password, in.Password2)
	if err := errOrNil(verr); err != nil {
		return err
	}

	user, err := s.resets.Validate(ctx, uid, token, s.users)
	if err != nil {
		return err
	}

	if err := s.users.ChangePassword(ctx, user, in.Password); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return common.ErrTokenInvalid
		}
		return err
	}
	return nil
}
