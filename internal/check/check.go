// Package check lints migration source files for a safety annotation.
//
// Every migration file must declare its deployment-safety policy with
// a comment of the form:
//
//	-- safe: before_deploy
//	-- safe: after_deploy delay=2h
//
// The check is intentionally rudimentary: it looks for the annotation
// anywhere in the file and validates the policy value, nothing more.
// It is meant to run as a pre-commit or CI step so migrations cannot
// land without a declared policy.
package check

import (
	"fmt"
	"os"
	"regexp"

	"github.com/safemigrate/safemigrate/internal/types"
)

// safeRe matches the safety annotation: -- safe: <policy> [delay=<delay>]
var safeRe = regexp.MustCompile(`(?m)^\s*--\s*safe:\s*(\S+)(?:\s+delay=(\S+))?\s*$`)

// Finding is one problem with one file.
type Finding struct {
	Path    string
	Problem string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Problem)
}

// FixHint is printed after findings to show the expected annotation.
const FixHint = `
Add a safety annotation to the migration file:

    -- safe: before_deploy

You can also use the following:
    -- safe: always
    -- safe: after_deploy
    -- safe: after_deploy delay=2h
`

// ValidateFiles checks every file for a well-formed safety annotation.
// It returns all findings, not just the first, so a CI run reports the
// complete set of offending files at once.
func ValidateFiles(paths []string) ([]Finding, error) {
	var findings []Finding
	for _, path := range paths {
		content, err := os.ReadFile(path) // #nosec G304 - paths supplied by the operator
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if f := validate(path, content); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings, nil
}

func validate(path string, content []byte) *Finding {
	match := safeRe.FindSubmatch(content)
	if match == nil {
		return &Finding{Path: path, Problem: "missing the '-- safe:' annotation"}
	}

	policy := string(match[1])
	safe, err := types.ParsePolicy(policy)
	if err != nil {
		return &Finding{Path: path, Problem: err.Error()}
	}

	if delay := string(match[2]); delay != "" {
		if safe.Kind != types.SafeAfterDeployKind {
			return &Finding{Path: path, Problem: fmt.Sprintf("delay is only valid with after_deploy, not %s", safe.Kind)}
		}
		if _, err := types.ParseDelay(delay); err != nil {
			return &Finding{Path: path, Problem: err.Error()}
		}
	}

	return nil
}
