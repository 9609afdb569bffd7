// Package resolver computes the effective temporal state of each
// migration for the current evaluation instant.
//
// A migration's declared policy is static; its effective state also
// accounts for delay promotion: an after_deploy migration with a delay
// becomes ready once the delay has elapsed since the migration was
// first detected.
package resolver

import (
	"time"

	"github.com/safemigrate/safemigrate/internal/types"
)

// State is a migration's policy after applying time-based promotion.
type State int

const (
	// StateReady migrations have no remaining restriction: always
	// migrations, and after_deploy migrations whose delay has elapsed.
	StateReady State = iota
	// StateBeforeDeploy migrations must run before the deploy. They may
	// block others but must never themselves end up waiting on a
	// delayed migration.
	StateBeforeDeploy
	// StatePending migrations are after_deploy migrations still inside
	// their delay window, or with no delay at all.
	StatePending
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBeforeDeploy:
		return "before_deploy"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// DelayedIdentities returns the identities that need a detection store
// lookup: only after_deploy migrations with a delay can ever promote,
// so nothing else needs a record.
func DelayedIdentities(migrations []*types.Migration) []types.Identity {
	var ids []types.Identity
	for _, m := range migrations {
		if m.Safe.Kind == types.SafeAfterDeployKind && m.Safe.Delay != nil {
			ids = append(ids, m.Identity)
		}
	}
	return ids
}

// Resolve maps each migration to its effective state at now, given the
// detection records that exist. It is a pure function: no lookups, no
// writes, no clock reads.
func Resolve(migrations []*types.Migration, detected map[types.Identity]time.Time, now time.Time) map[types.Identity]State {
	states := make(map[types.Identity]State, len(migrations))
	for _, m := range migrations {
		states[m.Identity] = resolveOne(m, detected, now)
	}
	return states
}

func resolveOne(m *types.Migration, detected map[types.Identity]time.Time, now time.Time) State {
	switch m.Safe.Kind {
	case types.SafeBeforeDeployKind:
		return StateBeforeDeploy
	case types.SafeAfterDeployKind:
		if m.Safe.Delay == nil {
			// No delay means manual promotion only.
			return StatePending
		}
		seen, ok := detected[m.Identity]
		if !ok {
			return StatePending
		}
		if now.Before(seen.Add(*m.Safe.Delay)) {
			return StatePending
		}
		return StateReady
	default:
		// always, and anything else: validation happens before
		// resolution, so unknown kinds cannot reach this point.
		return StateReady
	}
}
