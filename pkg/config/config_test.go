package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushfeed/pushfeed/pkg/config"
)

type testConfig struct {
	Addr      string        `env:"TEST_ADDR" envDefault:":8080"`
	Retention time.Duration `env:"TEST_RETENTION" envDefault:"15m"`
	MaxConns  int           `env:"TEST_MAX_CONNS" envDefault:"3"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Retention)
	assert.Equal(t, 3, cfg.MaxConns)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TEST_ADDR", ":9090")
	t.Setenv("TEST_RETENTION", "1h")
	t.Setenv("TEST_MAX_CONNS", "10")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.Retention)
	assert.Equal(t, 10, cfg.MaxConns)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("TEST_MAX_CONNS", "not-a-number")

	var cfg testConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}
