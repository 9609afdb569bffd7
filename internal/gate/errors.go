package gate

import (
	"fmt"
	"strings"

	"github.com/safemigrate/safemigrate/internal/types"
)

// DirectionError is returned when the plan contains reverse-direction
// migrations. Safety classification has no semantics for rollback, so
// this aborts before any resolution happens, regardless of mode.
type DirectionError struct {
	Identities []types.Identity
}

func (e *DirectionError) Error() string {
	return "backward migrations are not supported: " + joinIdentities(e.Identities)
}

// InvalidPolicyError reports every migration in the plan with a
// malformed safe policy. Validation is batched: all offenders are
// collected before aborting, not just the first.
type InvalidPolicyError struct {
	Identities []types.Identity
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("aborting due to %d migration(s) with invalid safe policies: %s",
		len(e.Identities), joinIdentities(e.Identities))
}

// BlockedError is raised only in strict mode when categorization left
// migrations blocked. It carries the full blocked set so the caller
// can report it before aborting.
type BlockedError struct {
	Blocked []*types.Migration
}

func (e *BlockedError) Error() string {
	ids := make([]types.Identity, len(e.Blocked))
	for i, m := range e.Blocked {
		ids[i] = m.Identity
	}
	return "aborting due to blocked migrations: " + joinIdentities(ids)
}

func joinIdentities(ids []types.Identity) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
