// Package plan loads migration execution plans from YAML manifests.
//
// The manifest is produced by the upstream planner and is assumed to
// be topologically ordered and cycle-free. Malformed structure (bad
// YAML, unparseable references) fails loading; malformed safety
// policies deliberately do not — they are carried into the plan as
// invalid so the gate can report every offender in one batch.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/safemigrate/safemigrate/internal/types"
)

// manifest mirrors the YAML document structure.
type manifest struct {
	Migrations []manifestEntry `yaml:"migrations"`
}

type manifestEntry struct {
	App       string   `yaml:"app"`
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
	RunBefore []string `yaml:"run_before"`
	Safe      string   `yaml:"safe"`
	Delay     string   `yaml:"delay"`
	Reverse   bool     `yaml:"reverse"`
}

// Load reads and parses a plan manifest from path.
func Load(path string) (*types.Plan, error) {
	data, err := os.ReadFile(path) // #nosec G304 - manifest path supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading plan manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses a plan manifest document.
func Parse(data []byte) (*types.Plan, error) {
	var doc manifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing plan manifest: %w", err)
	}

	p := &types.Plan{Migrations: make([]*types.Migration, 0, len(doc.Migrations))}
	seen := make(map[types.Identity]bool, len(doc.Migrations))

	for i, entry := range doc.Migrations {
		if entry.App == "" || entry.Name == "" {
			return nil, fmt.Errorf("migration %d: app and name are required", i)
		}
		identity := types.Identity{App: entry.App, Name: entry.Name}
		if seen[identity] {
			return nil, fmt.Errorf("duplicate migration %s", identity)
		}
		seen[identity] = true

		deps, err := parseRefs(entry.DependsOn)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", identity, err)
		}
		runBefore, err := parseRefs(entry.RunBefore)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", identity, err)
		}

		p.Migrations = append(p.Migrations, &types.Migration{
			Identity:     identity,
			Dependencies: deps,
			RunBefore:    runBefore,
			Safe:         parseSafe(entry),
			Reverse:      entry.Reverse,
		})
	}

	return p, nil
}

// parseSafe turns the manifest policy fields into a Safe value. An
// unparseable policy yields the invalid zero value rather than an
// error: policy validation is the gate's job, and it reports all
// offenders together.
func parseSafe(entry manifestEntry) types.Safe {
	safe, err := types.ParsePolicy(entry.Safe)
	if err != nil {
		return types.Safe{}
	}
	if entry.Delay == "" {
		return safe
	}
	if safe.Kind != types.SafeAfterDeployKind {
		// A delay on anything but after_deploy is malformed.
		return types.Safe{}
	}
	delay, err := types.ParseDelay(entry.Delay)
	if err != nil {
		return types.Safe{}
	}
	return types.SafeAfterDeployDelay(delay)
}

func parseRefs(refs []string) ([]types.Identity, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]types.Identity, len(refs))
	for i, ref := range refs {
		id, err := types.ParseIdentity(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
