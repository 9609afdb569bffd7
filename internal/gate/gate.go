// Package gate decides which migrations in an execution plan may run
// now, which must wait, and which are hard policy violations, then
// rewrites the plan to contain only the ready set.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/safemigrate/safemigrate/internal/resolver"
	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/types"
)

// Options configure a Controller.
type Options struct {
	Mode types.Mode
	// Fake suppresses detection store writes only; categorization and
	// abort behavior are unchanged.
	Fake bool
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of one gate evaluation. The three lists are a
// partition of the input plan, each in original plan order. Detected
// holds the store records that informed promotion, for reporting.
type Result struct {
	Ready    []*types.Migration
	Delayed  []*types.Migration
	Blocked  []*types.Migration
	Detected map[types.Identity]time.Time
	// Bypassed is set when the disabled mode skipped classification
	// and the plan ran unmodified.
	Bypassed bool
}

// Controller runs the classification once per deployment run. The
// external trigger (CLI hook, signal) may fire more than once; the ran
// guard makes repeat invocations a no-op so the plan is mutated
// identically whether the hook fires once or twice.
type Controller struct {
	store storage.DetectionStore
	opts  Options
	ran   bool
}

// NewController creates a gate controller. The store may be nil when
// the mode is disabled or the plan contains no timed migrations; Run
// only touches it when a lookup or write is actually needed.
func NewController(store storage.DetectionStore, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = types.ModeStrict
	}
	return &Controller{store: store, opts: opts}
}

// Run classifies the plan and replaces its executable contents with
// the ready set. On any error the plan is left untouched and no
// detection record is written; a *BlockedError additionally comes with
// a non-nil Result so the caller can report the delayed set alongside
// the blocked one. A second call is a no-op returning a nil result.
func (c *Controller) Run(ctx context.Context, plan *types.Plan) (*Result, error) {
	if c.ran {
		return nil, nil
	}
	c.ran = true

	migrations := plan.Migrations

	// Validation precedes mode dispatch: reverse plans and malformed
	// policies abort regardless of mode, before any store access.
	var reversed []types.Identity
	for _, m := range migrations {
		if m.Reverse {
			reversed = append(reversed, m.Identity)
		}
	}
	if len(reversed) > 0 {
		return nil, &DirectionError{Identities: reversed}
	}

	var invalid []types.Identity
	for _, m := range migrations {
		if !m.Safe.Valid() {
			invalid = append(invalid, m.Identity)
		}
	}
	if len(invalid) > 0 {
		return nil, &InvalidPolicyError{Identities: invalid}
	}

	if c.opts.Mode == types.ModeDisabled {
		// Bypass: the original plan runs unmodified and the resolver
		// and categorizer are never invoked.
		return &Result{Ready: migrations, Bypassed: true}, nil
	}

	// Only timed after_deploy migrations ever need a record; skip the
	// store entirely when there are none.
	detected := map[types.Identity]time.Time{}
	timed := resolver.DelayedIdentities(migrations)
	if len(timed) > 0 {
		var err error
		detected, err = c.store.Lookup(ctx, timed)
		if err != nil {
			return nil, fmt.Errorf("looking up detection records: %w", err)
		}
	}

	now := c.opts.Now()
	states := resolver.Resolve(migrations, detected, now)
	ready, delayed, blocked := Categorize(migrations, states)

	result := &Result{Ready: ready, Delayed: delayed, Blocked: blocked, Detected: detected}

	if len(blocked) > 0 && c.opts.Mode == types.ModeStrict {
		return result, &BlockedError{Blocked: blocked}
	}

	// Start the clock for newly delayed timed migrations. Blocked
	// migrations never get a record while the violation is unresolved,
	// and delay-less after_deploy migrations have nothing to time.
	if !c.opts.Fake {
		for _, m := range delayed {
			if m.Safe.Kind != types.SafeAfterDeployKind || m.Safe.Delay == nil {
				continue
			}
			if err := c.store.CreateIfAbsent(ctx, m.Identity, now); err != nil {
				return nil, fmt.Errorf("recording detection for %s: %w", m.Identity, err)
			}
		}
	}

	// Swap the plan's executable contents for the ready set, in the
	// original order. None are backward, so force forward direction.
	rewritten := make([]*types.Migration, len(ready))
	for i, m := range ready {
		fwd := *m
		fwd.Reverse = false
		rewritten[i] = &fwd
	}
	plan.Migrations = rewritten

	return result, nil
}
