// Package testutil provides fixtures shared by multistair tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TwoConditionsYAML is a condition file with staircases A and B whose
// simulated thresholds sit either side of zero.
const TwoConditionsYAML = `conditions:
  - label: A
    startVal: 0
    startValSd: 1
    threshold: -0.5
  - label: B
    startVal: 0
    startValSd: 1
    threshold: 0.5
`

// InvalidConditionsYAML is missing startValSd on its only condition.
const InvalidConditionsYAML = `- label: A
  startVal: 0
`

// WriteConditions writes content to name inside a temporary directory and
// returns the file path. The directory is removed when the test completes.
func WriteConditions(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write conditions file: %v", err)
	}
	return path
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
