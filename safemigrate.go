// Package safemigrate provides a minimal public API for embedding the
// migration safety gate in Go deployment tooling.
//
// Most integrations should use the safemigrate CLI. This package
// exports only the essential types and functions for hosts that want
// to gate a plan programmatically: build a Plan, open a detection
// store, and run a Controller against it.
package safemigrate

import (
	"context"

	"github.com/safemigrate/safemigrate/internal/gate"
	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/storage/sqlite"
	"github.com/safemigrate/safemigrate/internal/types"
)

// Core types for building and gating plans
type (
	Identity  = types.Identity
	Safe      = types.Safe
	Migration = types.Migration
	Plan      = types.Plan
	Mode      = types.Mode

	Controller = gate.Controller
	Options    = gate.Options
	Result     = gate.Result

	BlockedError       = gate.BlockedError
	InvalidPolicyError = gate.InvalidPolicyError
	DirectionError     = gate.DirectionError
)

// Policy constructors
var (
	Always           = types.SafeAlways
	BeforeDeploy     = types.SafeBeforeDeploy
	AfterDeploy      = types.SafeAfterDeploy
	AfterDeployDelay = types.SafeAfterDeployDelay
)

// Mode constants
const (
	ModeStrict    = types.ModeStrict
	ModeNonstrict = types.ModeNonstrict
	ModeDisabled  = types.ModeDisabled
)

// DetectionStore is the persistence capability the gate consumes.
type DetectionStore = storage.DetectionStore

// NewSQLiteStore opens a SQLite detection store for programmatic use.
func NewSQLiteStore(ctx context.Context, path string) (DetectionStore, error) {
	return sqlite.New(ctx, path)
}

// NewController creates a gate controller over the given store.
func NewController(store DetectionStore, opts Options) *Controller {
	return gate.NewController(store, opts)
}
