// Command admin runs operator tasks against the ProjectHub store.
//
//	admin createsuperuser [server flags]
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/projecthub/internal/admin"
	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "createsuperuser" {
		fmt.Fprintln(os.Stderr, "usage: admin createsuperuser [flags]")
		os.Exit(2)
	}

	if err := createSuperuser(context.Background(), os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func createSuperuser(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("createsuperuser needs the postgres storage backend, got %q", cfg.Storage)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	users := services.NewUserService(rm, guard.New(guard.Open), cryptox.NewHasher(cryptox.DefaultParams), logger)

	cmd := &admin.CreateSuperuser{Users: users, In: bufio.NewReader(os.Stdin), Out: os.Stdout}
	_, err = cmd.Run(ctx)
	return err
}
