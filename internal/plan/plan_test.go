package plan_test

import (
	"testing"
	"time"

	"github.com/safemigrate/safemigrate/internal/plan"
	"github.com/safemigrate/safemigrate/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
migrations:
  - app: accounts
    name: 0001_initial
  - app: accounts
    name: 0002_add_column
    safe: before_deploy
    depends_on:
      - accounts.0001_initial
  - app: billing
    name: 0001_initial
    safe: after_deploy
    delay: 2h
    run_before:
      - accounts.0002_add_column
`

func TestParseManifest(t *testing.T) {
	p, err := plan.Parse([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, p.Migrations, 3)

	first := p.Migrations[0]
	assert.Equal(t, types.Identity{App: "accounts", Name: "0001_initial"}, first.Identity)
	// Undeclared policy defaults to always.
	assert.Equal(t, types.SafeAlways(), first.Safe)
	assert.False(t, first.Reverse)

	second := p.Migrations[1]
	assert.Equal(t, types.SafeBeforeDeploy(), second.Safe)
	assert.Equal(t, []types.Identity{{App: "accounts", Name: "0001_initial"}}, second.Dependencies)

	third := p.Migrations[2]
	assert.Equal(t, types.SafeAfterDeployDelay(2*time.Hour), third.Safe)
	assert.Equal(t, []types.Identity{{App: "accounts", Name: "0002_add_column"}}, third.RunBefore)
}

func TestParseInvalidPolicyIsCarriedNotRejected(t *testing.T) {
	doc := `
migrations:
  - app: accounts
    name: 0001_initial
    safe: whenever
  - app: accounts
    name: 0002_add_column
    safe: always
    delay: 2h
  - app: accounts
    name: 0003_backfill
    safe: after_deploy
    delay: soon
`
	p, err := plan.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, p.Migrations, 3)

	// All three are malformed in different ways; each carries the
	// invalid zero policy for the gate to batch-report.
	for _, m := range p.Migrations {
		assert.False(t, m.Safe.Valid(), "%s should carry an invalid policy", m.Identity)
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "migrations: ["},
		{"missing name", "migrations:\n  - app: accounts"},
		{"missing app", "migrations:\n  - name: 0001_initial"},
		{"bad dependency ref", "migrations:\n  - app: a\n    name: b\n    depends_on: [nodot]"},
		{"duplicate identity", "migrations:\n  - app: a\n    name: b\n  - app: a\n    name: b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseEmptyManifest(t *testing.T) {
	p, err := plan.Parse([]byte("migrations: []"))
	require.NoError(t, err)
	assert.Empty(t, p.Migrations)
}
