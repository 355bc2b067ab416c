package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/flagx"
)

var ownFlags = []string{"-a", "-g", "-d", "-s", "-m", "-p", "-l", "-t", "-r", "-x"}

// parseFlags overlays selected fields from command-line flags:
//
//	-a string   HTTP bind address
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT / reset-token secret
//	-m string   storage backend: postgres | memory
//	-p string   mutation policy: open | owner
//	-l string   password reset link base URL
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-x int      reset token validity, minutes
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend")
	fs.StringVar(&config.MutationPolicy, "p", config.MutationPolicy, "client/project mutation policy")
	fs.StringVar(&config.ResetLinkBaseURL, "l", config.ResetLinkBaseURL, "password reset link base URL")

	access := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")
	reset := fs.Int("x", int(config.ResetTokenValidityDuration.Minutes()), "reset token validity (minutes)")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		case "x":
			config.ResetTokenValidityDuration = time.Duration(*reset) * time.Minute
		}
	})
	return nil
}
