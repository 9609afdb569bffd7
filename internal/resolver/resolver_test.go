package resolver_test

import (
	"testing"
	"time"

	"github.com/safemigrate/safemigrate/internal/resolver"
	"github.com/safemigrate/safemigrate/internal/types"
	"github.com/stretchr/testify/assert"
)

func mig(app, name string, safe types.Safe) *types.Migration {
	return &types.Migration{
		Identity: types.Identity{App: app, Name: name},
		Safe:     safe,
	}
}

func TestResolveMirrorsStaticPolicies(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	migrations := []*types.Migration{
		mig("accounts", "0001_initial", types.SafeAlways()),
		mig("accounts", "0002_add_column", types.SafeBeforeDeploy()),
		mig("accounts", "0003_backfill", types.SafeAfterDeploy()),
	}

	states := resolver.Resolve(migrations, nil, now)

	assert.Equal(t, resolver.StateReady, states[migrations[0].Identity])
	assert.Equal(t, resolver.StateBeforeDeploy, states[migrations[1].Identity])
	assert.Equal(t, resolver.StatePending, states[migrations[2].Identity])
}

func TestResolvePromotionThreshold(t *testing.T) {
	delay := 2 * time.Hour
	m := mig("billing", "0010_drop_column", types.SafeAfterDeployDelay(delay))
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	detected := map[types.Identity]time.Time{m.Identity: t0}

	tests := []struct {
		name string
		now  time.Time
		want resolver.State
	}{
		{"just before threshold", t0.Add(delay - time.Nanosecond), resolver.StatePending},
		{"exactly at threshold", t0.Add(delay), resolver.StateReady},
		{"well past threshold", t0.Add(3 * delay), resolver.StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states := resolver.Resolve([]*types.Migration{m}, detected, tt.now)
			assert.Equal(t, tt.want, states[m.Identity])
		})
	}
}

func TestResolveWithoutRecordStaysPending(t *testing.T) {
	m := mig("billing", "0010_drop_column", types.SafeAfterDeployDelay(time.Minute))
	states := resolver.Resolve([]*types.Migration{m}, nil, time.Now())
	assert.Equal(t, resolver.StatePending, states[m.Identity])
}

func TestResolveNoDelayNeverPromotes(t *testing.T) {
	m := mig("billing", "0011_manual_cleanup", types.SafeAfterDeploy())
	// Even a detection record far in the past changes nothing without a delay.
	detected := map[types.Identity]time.Time{
		m.Identity: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	states := resolver.Resolve([]*types.Migration{m}, detected, time.Now())
	assert.Equal(t, resolver.StatePending, states[m.Identity])
}

func TestDelayedIdentities(t *testing.T) {
	migrations := []*types.Migration{
		mig("a", "0001", types.SafeAlways()),
		mig("a", "0002", types.SafeBeforeDeploy()),
		mig("a", "0003", types.SafeAfterDeploy()),
		mig("a", "0004", types.SafeAfterDeployDelay(time.Hour)),
		mig("b", "0001", types.SafeAfterDeployDelay(24*time.Hour)),
	}

	ids := resolver.DelayedIdentities(migrations)

	// Only after_deploy with a delay ever needs a store lookup.
	assert.Equal(t, []types.Identity{
		{App: "a", Name: "0004"},
		{App: "b", Name: "0001"},
	}, ids)
}

func TestDelayedIdentitiesEmpty(t *testing.T) {
	migrations := []*types.Migration{
		mig("a", "0001", types.SafeAlways()),
		mig("a", "0002", types.SafeAfterDeploy()),
	}
	assert.Nil(t, resolver.DelayedIdentities(migrations))
}
