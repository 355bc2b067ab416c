package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/projecthub/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file (variables already set in the process win)
// and overlays every `env`-tagged field that has a variable set.
func parseEnv(config *Config, args []string) error {
	envFile := flagx.EnvFile(args)
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
