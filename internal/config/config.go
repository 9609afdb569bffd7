// Package config resolves safemigrate settings from flags, environment
// variables, and an optional safemigrate.yaml, in that precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/safemigrate/safemigrate/internal/types"
)

// Defaults.
const (
	DefaultDriver = "sqlite"
	DefaultDBPath = ".safemigrate/detections.db"
)

// Settings are the resolved runtime settings for one gate invocation.
type Settings struct {
	Mode   types.Mode
	Driver string // sqlite | mysql
	DBPath string // sqlite database path
	DSN    string // mysql DSN
	Fake   bool   // suppress detection writes
}

// Initialize sets up the viper singleton: config file discovery and
// SAFEMIGRATE_* environment binding. Call once at process start; a
// missing config file is not an error.
func Initialize() error {
	viper.SetConfigName("safemigrate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("SAFEMIGRATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", string(types.ModeStrict))
	viper.SetDefault("db.driver", DefaultDriver)
	viper.SetDefault("db.path", DefaultDBPath)
	viper.SetDefault("db.dsn", "")
	viper.SetDefault("fake", false)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading safemigrate.yaml: %w", err)
	}
	return nil
}

// Load validates the current viper state into Settings. An invalid
// mode fails configuration resolution before any plan is touched,
// distinct from a blocked-plan failure.
func Load() (*Settings, error) {
	mode, err := types.ParseMode(viper.GetString("mode"))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Mode:   mode,
		Driver: viper.GetString("db.driver"),
		DBPath: viper.GetString("db.path"),
		DSN:    viper.GetString("db.dsn"),
		Fake:   viper.GetBool("fake"),
	}

	switch s.Driver {
	case "sqlite", "sqlite3", "":
		if s.Driver == "" {
			s.Driver = DefaultDriver
		}
	case "mysql":
		if s.DSN == "" {
			return nil, fmt.Errorf("db.driver is mysql but db.dsn is not set")
		}
	default:
		return nil, fmt.Errorf("invalid db.driver %q: must be \"sqlite\" or \"mysql\"", s.Driver)
	}

	return s, nil
}
