//go:build integration
// +build integration

package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func skipUnlessEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("SCRIBE_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration test; set SCRIBE_INTEGRATION_TESTS=1 to run")
	}
}

// buildScribe compiles the scribe binary once per test binary.
func buildScribe(t *testing.T) string {
	t.Helper()

	bin := filepath.Join("..", "..", "build", "scribe")
	if _, err := os.Stat(bin); os.IsNotExist(err) {
		out, err := exec.Command("go", "build", "-o", bin, "../../cmd/scribe").CombinedOutput()
		require.NoError(t, err, "failed to build scribe: %s", out)
	}
	abs, err := filepath.Abs(bin)
	require.NoError(t, err)
	return abs
}

// testEnv returns an environment that keeps git and XDG state inside the test.
func testEnv(t *testing.T) []string {
	t.Helper()

	home := t.TempDir()
	return append(os.Environ(),
		"HOME="+home,
		"XDG_DATA_HOME="+filepath.Join(home, "data"),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_AUTHOR_NAME=Scribe Test",
		"GIT_AUTHOR_EMAIL=scribe@example.com",
		"GIT_COMMITTER_NAME=Scribe Test",
		"GIT_COMMITTER_EMAIL=scribe@example.com",
	)
}

func gitSubjects(t *testing.T, root string) string {
	t.Helper()
	out, err := exec.Command("git", "-C", root, "log", "--pretty=format:%s").CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}
