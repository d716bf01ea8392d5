//go:build integration || database

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedRecapPath holds the path to a shared recap binary built once for all tests.
	sharedRecapPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getRecapBinary returns the path to the recap binary, building it once if needed.
func getRecapBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "recap-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		recapPath := filepath.Join(tempDir, "recap")
		buildCmd := exec.Command("go", "build", "-o", recapPath, "./cmd/recap")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build recap: %v\n%s", err, out))
		}

		sharedRecapPath = recapPath
	})

	return sharedRecapPath
}

// newFakeGitLab serves the recorded event feed for user jdoe (id 25), who also owns the token.
func newFakeGitLab(t *testing.T) *httptest.Server {
	t.Helper()
	feed, err := os.ReadFile(filepath.Join("..", "core", "agg", "testdata", "events.json"))
	require.NoError(t, err)

	user := map[string]any{"id": 25, "username": "jdoe", "name": "Jane Doe"}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "jdoe" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode([]any{user})
	})
	mux.HandleFunc("/api/v4/user", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/api/v4/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		w.Header().Set("X-Next-Page", "")
		_, _ = w.Write(feed)
	})
	mux.HandleFunc("/api/v4/projects/3/merge_requests/12", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"iid": 12, "description": "Adds retries to the exporter"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// runRecap runs the binary from the project root with the given environment and returns stdout.
func runRecap(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getRecapBinary(), args...)
	cmd.Dir = ".." // Run from project root
	cmd.Env = append(append(os.Environ(), "HOME="+t.TempDir()), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}
