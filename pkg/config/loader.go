package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// LoadEnv reads the given .env files into the process environment without
// overriding variables that are already set. Without arguments it reads
// ./.env and tolerates its absence.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrLoadingEnv, err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnv, err)
	}
	return nil
}

// Load parses the environment into a new T. The default .env file is read
// once per process before the first parse.
func Load[T any]() (T, error) {
	defaultEnvLoaded.Do(func() { _ = LoadEnv() })

	cfg, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// LoadPrefixed is Load with every env tag prefixed, so one struct type can
// serve several instances (for example PRIMARY_ and REPLICA_ databases).
func LoadPrefixed[T any](prefix string) (T, error) {
	defaultEnvLoaded.Do(func() { _ = LoadEnv() })

	var cfg T
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
