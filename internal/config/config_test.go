package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safemigrate/safemigrate/internal/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	require.NoError(t, Initialize())

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, types.ModeStrict, s.Mode)
	assert.Equal(t, "sqlite", s.Driver)
	assert.Equal(t, DefaultDBPath, s.DBPath)
	assert.False(t, s.Fake)
}

func TestLoadModeFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("SAFEMIGRATE_MODE", "nonstrict")
	require.NoError(t, Initialize())

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNonstrict, s.Mode)
}

func TestLoadInvalidModeFailsResolution(t *testing.T) {
	resetViper(t)
	t.Setenv("SAFEMIGRATE_MODE", "lenient")
	require.NoError(t, Initialize())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid safemigrate mode")
}

func TestLoadMySQLRequiresDSN(t *testing.T) {
	resetViper(t)
	t.Setenv("SAFEMIGRATE_DB_DRIVER", "mysql")
	require.NoError(t, Initialize())

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SAFEMIGRATE_DB_DSN", "runner:pw@tcp(db:3306)/safemigrate")
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Driver)
	assert.Equal(t, "runner:pw@tcp(db:3306)/safemigrate", s.DSN)
}

func TestLoadUnknownDriver(t *testing.T) {
	resetViper(t)
	t.Setenv("SAFEMIGRATE_DB_DRIVER", "postgres")
	require.NoError(t, Initialize())

	_, err := Load()
	assert.Error(t, err)
}
