package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateFiles(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantProblem string // empty = clean
	}{
		{
			name:    "annotated before_deploy",
			content: "-- safe: before_deploy\nALTER TABLE users ADD COLUMN email TEXT;\n",
		},
		{
			name:    "annotated with delay",
			content: "-- safe: after_deploy delay=2h\nDROP TABLE legacy_users;\n",
		},
		{
			name:    "annotation after other comments",
			content: "-- accounts 0004: widen status column\n-- safe: always\nALTER TABLE a ALTER COLUMN s;\n",
		},
		{
			name:    "indented annotation",
			content: "  -- safe: always\nSELECT 1;\n",
		},
		{
			name:        "missing annotation",
			content:     "ALTER TABLE users DROP COLUMN email;\n",
			wantProblem: "missing the '-- safe:' annotation",
		},
		{
			name:        "invalid policy",
			content:     "-- safe: whenever\nSELECT 1;\n",
			wantProblem: "invalid safe policy",
		},
		{
			name:        "delay on wrong policy",
			content:     "-- safe: always delay=2h\nSELECT 1;\n",
			wantProblem: "delay is only valid with after_deploy",
		},
		{
			name:        "bad delay value",
			content:     "-- safe: after_deploy delay=soon\nSELECT 1;\n",
			wantProblem: "invalid delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "0001_test.sql", tt.content)
			findings, err := ValidateFiles([]string{path})
			require.NoError(t, err)

			if tt.wantProblem == "" {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, path, findings[0].Path)
			assert.Contains(t, findings[0].Problem, tt.wantProblem)
		})
	}
}

func TestValidateFilesReportsAllOffenders(t *testing.T) {
	good := writeFile(t, "0001_good.sql", "-- safe: always\nSELECT 1;\n")
	bad1 := writeFile(t, "0002_bad.sql", "SELECT 1;\n")
	bad2 := writeFile(t, "0003_bad.sql", "-- safe: maybe\nSELECT 1;\n")

	findings, err := ValidateFiles([]string{good, bad1, bad2})
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, bad1, findings[0].Path)
	assert.Equal(t, bad2, findings[1].Path)
}

func TestValidateFilesMissingFile(t *testing.T) {
	_, err := ValidateFiles([]string{filepath.Join(t.TempDir(), "nope.sql")})
	assert.Error(t, err)
}
