package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config: nil pointer provided")
	// ErrParsingConfig is returned when environment parsing fails.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)

var loadDotEnv sync.Once

// Load fills the provided configuration struct from environment variables,
// honoring `env` field tags and `envDefault` values. The first call also
// loads a .env file if one exists; a missing file is not an error.
//
// Example:
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	loadDotEnv.Do(func() {
		// The .env file is a development convenience; absence is fine.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
