// Package server assembles the ProjectHub API server: it picks the storage
// backend, builds the services, and runs the HTTP API next to the gRPC
// health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/httpapi"
	"github.com/dmitrijs2005/projecthub/internal/server/mail"
	"github.com/dmitrijs2005/projecthub/internal/server/ratelimit"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/projecthub/internal/server/grpc"
)

const drainTimeout = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	dispatcher  *mail.Dispatcher
	http        *httpapi.HTTPServer
	health      *gs.HealthServer
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	policy, err := guard.ParsePolicy(c.MutationPolicy)
	if err != nil {
		return nil, err
	}

	rm, err := newRepositoryManager(c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger, repomanager: rm}

	var sender mail.Sender = mail.NewLogSender(logger)
	if c.SendgridAPIKey != "" {
		sender = mail.NewSendGridSender(c.SendgridAPIKey, c.EmailFromAddress, c.EmailFromName)
	}
	app.dispatcher = mail.NewDispatcher(sender, logger)

	var resetLimiter ratelimit.Limiter = ratelimit.Noop{}
	if c.RedisAddr != "" && c.ResetRequestsPerHour > 0 {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		resetLimiter = ratelimit.NewWindowLimiter(app.redis, "pwreset:", time.Hour, c.ResetRequestsPerHour, logger)
	}

	secret := []byte(c.SecretKey)
	g := guard.New(policy)

	us := services.NewUserService(rm, g, cryptox.NewHasher(cryptox.DefaultParams), logger)
	as := services.NewAuthService(us,
		auth.NewTokenService(secret, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration),
		auth.NewResetTokenService(secret, c.ResetTokenValidityDuration),
		app.dispatcher, resetLimiter, c.ResetLinkBaseURL, logger)

	h := httpapi.NewHandler(as, us,
		services.NewClientService(rm, g, logger),
		services.NewProjectService(rm, g, logger),
		services.NewAttachmentService(rm, g, c, logger),
		logger)

	router := httpapi.NewRouter(h, ratelimit.NewIPLimiter(c.AuthRequestsPerMinute), logger)
	app.http = httpapi.NewHTTPServer(router)
	app.health = gs.NewHealthServer(c.HealthAddrGRPC, logger)

	return app, nil
}

func newRepositoryManager(c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.Storage {
	case config.StorageMemory:
		return repomanager.NewInMemoryRepositoryManager(), nil
	default:
		return repomanager.NewPostgresRepositoryManager(c.DatabaseDSN)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the store and serves until ctx is cancelled or a signal
// arrives, then waits for pending emails and releases resources.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "mutation_policy", app.config.MutationPolicy)
	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		app.close(ctx)
		return fmt.Errorf("migrations: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", app.config.HTTPAddr)
		err := app.http.Run(gctx, app.config.HTTPAddr)
		app.health.SetServing(false)
		return err
	})

	g.Go(func() error {
		return app.health.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := app.dispatcher.Wait(drainCtx); err != nil {
		app.logger.Warn(ctx, "pending emails abandoned", "error", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Warn(ctx, "storage close failed", "error", err)
	}
}
