package gate

import (
	"github.com/safemigrate/safemigrate/internal/resolver"
	"github.com/safemigrate/safemigrate/internal/types"
)

// category is the classification a migration ends up in.
type category int

const (
	catReady category = iota
	catDelayed
	catBlocked
)

// Categorize partitions migrations into ready, delayed, and blocked
// sets using their effective states and both kinds of dependency edge.
// Each output list preserves the original plan order, and together the
// three lists are always a partition of the input.
//
// Blocking propagates in two phases, each a fixpoint:
//
//  1. A ready migration that depends on a delayed or blocked migration
//     (directly, or because that migration names it in run_before) is
//     pulled out of the ready set. If its own state is before_deploy
//     that is a hard violation and it becomes blocked; otherwise it
//     just inherits the wait and becomes delayed.
//  2. A delayed migration stuck behind a blocked one escalates to
//     blocked: waiting on a timer resolves itself, waiting on a policy
//     violation never will, and must surface as a failure.
func Categorize(migrations []*types.Migration, states map[types.Identity]resolver.State) (ready, delayed, blocked []*types.Migration) {
	cats := make(map[types.Identity]category, len(migrations))
	anyPending := false
	for _, m := range migrations {
		if states[m.Identity] == resolver.StatePending {
			cats[m.Identity] = catDelayed
			anyPending = true
		} else {
			cats[m.Identity] = catReady
		}
	}

	// Nothing is waiting, so nothing can propagate: everything runs.
	if !anyPending {
		return append([]*types.Migration{}, migrations...), nil, nil
	}

	// Phase 1: pull ready migrations behind delayed/blocked ones.
	for changed := true; changed; {
		changed = false
		waiting, inverse := edgeSets(migrations, cats, func(c category) bool {
			return c == catDelayed || c == catBlocked
		})
		for _, m := range migrations {
			if cats[m.Identity] != catReady {
				continue
			}
			if !dependsOn(m, waiting, inverse) {
				continue
			}
			if states[m.Identity] == resolver.StateBeforeDeploy {
				cats[m.Identity] = catBlocked
			} else {
				cats[m.Identity] = catDelayed
			}
			changed = true
		}
	}

	// Phase 2: escalate delayed migrations stuck behind hard blocks.
	for changed := true; changed; {
		changed = false
		hard, inverse := edgeSets(migrations, cats, func(c category) bool {
			return c == catBlocked
		})
		for _, m := range migrations {
			if cats[m.Identity] != catDelayed {
				continue
			}
			if dependsOn(m, hard, inverse) {
				cats[m.Identity] = catBlocked
				changed = true
			}
		}
	}

	// Emit in original plan order.
	for _, m := range migrations {
		switch cats[m.Identity] {
		case catReady:
			ready = append(ready, m)
		case catDelayed:
			delayed = append(delayed, m)
		case catBlocked:
			blocked = append(blocked, m)
		}
	}
	return ready, delayed, blocked
}

// edgeSets collects, for the migrations matching the predicate, their
// identities and the union of their run_before targets.
func edgeSets(migrations []*types.Migration, cats map[types.Identity]category, match func(category) bool) (ids, inverse map[types.Identity]bool) {
	ids = make(map[types.Identity]bool)
	inverse = make(map[types.Identity]bool)
	for _, m := range migrations {
		if !match(cats[m.Identity]) {
			continue
		}
		ids[m.Identity] = true
		for _, target := range m.RunBefore {
			inverse[target] = true
		}
	}
	return ids, inverse
}

// dependsOn reports whether m waits on the given set, either through a
// declared forward dependency or because a member named m in its
// run_before hints.
func dependsOn(m *types.Migration, ids, inverse map[types.Identity]bool) bool {
	if inverse[m.Identity] {
		return true
	}
	for _, dep := range m.Dependencies {
		if ids[dep] {
			return true
		}
	}
	return false
}
