package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/mail"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/ratelimit"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

const testResetBase = "http://localhost:3000/api/user/reset"

type fakeMailer struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (f *fakeMailer) Dispatch(_ context.Context, msg mail.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeMailer) sent() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.msgs...)
}

type testEnv struct {
	m           *repomanager.InMemoryRepositoryManager
	hasher      *cryptox.Hasher
	resets      *auth.ResetTokenService
	mailer      *fakeMailer
	users       *UserService
	auth        *AuthService
	clients     *ClientService
	projects    *ProjectService
	attachments *AttachmentService
}

func newTestEnv(t *testing.T, policy guard.Policy, limiter ratelimit.Limiter) *testEnv {
	t.Helper()

	secret := []byte("test-secret")
	m := repomanager.NewInMemoryRepositoryManager()
	g := guard.New(policy)
	hasher := cryptox.NewHasher(cryptox.FastParams)
	tokens := auth.NewTokenService(secret, 5*time.Minute, time.Hour)
	resets := auth.NewResetTokenService(secret, time.Hour)
	mailer := &fakeMailer{}
	log := logging.Nop{}

	users := NewUserService(m, g, hasher, log)
	return &testEnv{
		m:           m,
		hasher:      hasher,
		resets:      resets,
		mailer:      mailer,
		users:       users,
		auth:        NewAuthService(users, tokens, resets, mailer, limiter, testResetBase+"/", log),
		clients:     NewClientService(m, g, log),
		projects:    NewProjectService(m, g, log),
		attachments: NewAttachmentService(m, g, testS3Config(), log),
	}
}

// mkUser creates an active user with password "s3cret-pass".
func (e *testEnv) mkUser(t *testing.T, email string) (*models.User, *auth.Caller) {
	t.Helper()
	u, err := e.users.Create(context.Background(), NewUser{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return u, callerFor(u)
}

func callerFor(u *models.User) *auth.Caller {
	return &auth.Caller{UserID: u.ID, Email: u.Email, IsStaff: u.IsStaff, IsAdmin: u.IsAdmin}
}

// resetLinkParts extracts uid and token from a reset email body.
func resetLinkParts(t *testing.T, body string) (string, string) {
	t.Helper()
	i := strings.Index(body, testResetBase+"/")
	require.GreaterOrEqual(t, i, 0, "no reset link in %q", body)
	parts := strings.Split(body[i+len(testResetBase)+1:], "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}
