// Package types defines core data structures for the safemigrate gate.
package types

import (
	"fmt"
	"time"
)

// Identity uniquely identifies a migration as an (app, name) pair.
// It is comparable and used as the key for dependency edges and
// detection records.
type Identity struct {
	App  string `json:"app"`
	Name string `json:"name"`
}

// String renders the identity in "app.name" form, matching how
// migrations are referenced in plan manifests and reports.
func (id Identity) String() string {
	return id.App + "." + id.Name
}

// ParseIdentity parses an "app.name" reference. The app label may not
// contain dots; everything after the first dot is the migration name.
func ParseIdentity(s string) (Identity, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return Identity{App: s[:i], Name: s[i+1:]}, nil
		}
	}
	return Identity{}, fmt.Errorf("invalid migration reference %q: expected \"app.name\"", s)
}

// SafeKind enumerates the declared safety intents.
type SafeKind string

const (
	// SafeAlwaysKind migrations have no deployment-order restriction.
	SafeAlwaysKind SafeKind = "always"
	// SafeBeforeDeployKind migrations must run before the deploy completes.
	SafeBeforeDeployKind SafeKind = "before_deploy"
	// SafeAfterDeployKind migrations must wait until after the deploy.
	SafeAfterDeployKind SafeKind = "after_deploy"
)

// Safe is a migration's declared safety policy. The zero value is
// invalid so an unset manifest field can be detected and defaulted
// deliberately rather than probed at classification time.
type Safe struct {
	Kind  SafeKind       `json:"kind"`
	Delay *time.Duration `json:"delay,omitempty"` // only meaningful for after_deploy
}

// SafeAlways returns the no-restriction policy. This is the default
// for migrations that declare nothing.
func SafeAlways() Safe {
	return Safe{Kind: SafeAlwaysKind}
}

// SafeBeforeDeploy returns the must-run-before-deploy policy.
func SafeBeforeDeploy() Safe {
	return Safe{Kind: SafeBeforeDeployKind}
}

// SafeAfterDeploy returns the after-deploy policy with no delay.
// Such migrations never auto-promote; they must be run explicitly
// once the deploy is out.
func SafeAfterDeploy() Safe {
	return Safe{Kind: SafeAfterDeployKind}
}

// SafeAfterDeployDelay returns the after-deploy policy that
// auto-promotes once the delay has elapsed since first detection.
func SafeAfterDeployDelay(d time.Duration) Safe {
	return Safe{Kind: SafeAfterDeployKind, Delay: &d}
}

// Valid reports whether the policy is well formed: a known kind, with
// a delay only on after_deploy and never negative.
func (s Safe) Valid() bool {
	switch s.Kind {
	case SafeAlwaysKind, SafeBeforeDeployKind:
		return s.Delay == nil
	case SafeAfterDeployKind:
		return s.Delay == nil || *s.Delay >= 0
	default:
		return false
	}
}

// ParsePolicy parses a manifest policy string. An empty string means
// the migration declared nothing and defaults to always.
func ParsePolicy(s string) (Safe, error) {
	switch SafeKind(s) {
	case SafeAlwaysKind:
		return SafeAlways(), nil
	case SafeBeforeDeployKind:
		return SafeBeforeDeploy(), nil
	case SafeAfterDeployKind:
		return SafeAfterDeploy(), nil
	}
	if s == "" {
		return SafeAlways(), nil
	}
	return Safe{}, fmt.Errorf("invalid safe policy %q: must be one of %q, %q, or %q",
		s, SafeAlwaysKind, SafeBeforeDeployKind, SafeAfterDeployKind)
}

// Migration is one change unit in an execution plan.
type Migration struct {
	Identity     Identity   `json:"identity"`
	Dependencies []Identity `json:"dependencies,omitempty"` // forward edges: these must have run first
	RunBefore    []Identity `json:"run_before,omitempty"`   // inverse hints: these must wait on us
	Safe         Safe       `json:"safe"`
	Reverse      bool       `json:"reverse,omitempty"` // direction flag from the planner
}

// Plan is an ordered, topologically valid sequence of migrations.
// Acyclicity of dependencies and run_before is the planner's problem;
// the gate assumes it.
type Plan struct {
	Migrations []*Migration
}

// Identities returns the identity of every migration in plan order.
func (p *Plan) Identities() []Identity {
	ids := make([]Identity, len(p.Migrations))
	for i, m := range p.Migrations {
		ids[i] = m.Identity
	}
	return ids
}

// DetectionRecord is the durable first-seen timestamp for a migration.
// It is created at most once per identity and never updated; its
// presence plus the current time is the only input to delay promotion.
type DetectionRecord struct {
	Identity Identity  `json:"identity"`
	Detected time.Time `json:"detected"`
}

// Mode selects how the gate reacts to blocked migrations.
type Mode string

const (
	// ModeStrict aborts the whole run when any migration is blocked.
	ModeStrict Mode = "strict"
	// ModeNonstrict proceeds with the ready set, excluding blocked and
	// delayed migrations from execution.
	ModeNonstrict Mode = "nonstrict"
	// ModeDisabled bypasses classification entirely.
	ModeDisabled Mode = "disabled"
)

// ParseMode parses a mode setting. An empty value defaults to strict.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeNonstrict, ModeDisabled:
		return Mode(s), nil
	}
	if s == "" {
		return ModeStrict, nil
	}
	return "", fmt.Errorf("invalid safemigrate mode %q: must be one of %q, %q, or %q",
		s, ModeStrict, ModeNonstrict, ModeDisabled)
}
