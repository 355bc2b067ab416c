package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/mail"
	"github.com/dmitrijs2005/projecthub/internal/server/ratelimit"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const resetBase = "http://frontend.test/reset"

type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Dispatch(_ context.Context, msg mail.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *outbox) last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs, "no email dispatched")
	return o.msgs[len(o.msgs)-1]
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	outbox *outbox
	users  *services.UserService
}

func newAPI(t *testing.T, policy guard.Policy, authLimiter *ratelimit.IPLimiter) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := []byte("http-test-secret")
	log := logging.Nop{}
	m := repomanager.NewInMemoryRepositoryManager()
	g := guard.New(policy)
	box := &outbox{}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	us := services.NewUserService(m, g, cryptox.NewHasher(cryptox.FastParams), log)
	as := services.NewAuthService(us,
		auth.NewTokenService(secret, 5*time.Minute, time.Hour),
		auth.NewResetTokenService(secret, time.Hour),
		box, nil, resetBase, log)

	h := NewHandler(as, us,
		services.NewClientService(m, g, log),
		services.NewProjectService(m, g, log),
		services.NewAttachmentService(m, g, cfg, log),
		log)

	return &api{t: t, engine: NewRouter(h, authLimiter, log), outbox: box, users: us}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (a *api) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	a.t.Helper()

	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
	}
	return w
}

type tokenBody struct {
	Token struct {
		Refresh string `json:"refresh"`
		Access  string `json:"access"`
	} `json:"token"`
	Msg string `json:"msg"`
}

type errBody struct {
	Errors map[string]any `json:"errors"`
}

// register creates an account and returns its access token.
func (a *api) register(email string) string {
	a.t.Helper()
	var tb tokenBody
	w := a.do(http.MethodPost, "/register", "", map[string]string{
		"email":      email,
		"first_name": "Test",
		"last_name":  strings.Split(email, "@")[0],
		"password":   "pw123456",
		"password2":  "pw123456",
	}, &tb)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return tb.Token.Access
}

func (a *api) resetLink(t *testing.T) (string, string) {
	t.Helper()
	body := a.outbox.last(t).Body
	i := strings.Index(body, resetBase+"/")
	require.GreaterOrEqual(t, i, 0)
	parts := strings.Split(body[i+len(resetBase)+1:], "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}
