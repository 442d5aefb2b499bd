// Package config fills env-tagged structs from the process environment,
// optionally seeded from .env files during local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load parses the environment into cfg, which must be a pointer to a struct
// with `env` and `envDefault` tags.
func Load(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotEnv exports the KEY=VALUE pairs of files (".env" when none are
// given). Variables already set win, and files that do not exist are
// skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
