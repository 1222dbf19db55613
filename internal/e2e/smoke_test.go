package e2e

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, ok := r.Header["Authorization"]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"missing authorization header"}`))
			return
		}
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer api.Close()

	home := t.TempDir()
	binaryPath := buildBinary(t)
	outputsPath := writeOutputsFixture(t, home, api.URL+"/dev")

	_, stderr, err := runAmprest(t, binaryPath, home, "profile", "add", "dev", "--outputs", outputsPath)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runAmprest(t, binaryPath, home, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "dev")
	assert.Contains(t, stdout, "signed out")

	stdout, stderr, err = runAmprest(t, binaryPath, home, "call", "GET", "/ping", "--quiet")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, `"path": "/dev/ping"`)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "amprest-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/amprest")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build amprest binary: %s", string(output))
	return binaryPath
}

func runAmprest(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"PATH="+t.TempDir(),
		"AMPREST_SECRETS_DIR="+filepath.Join(home, "secrets"),
		"AMPREST_HTTP_RETRIES=0",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeOutputsFixture(t *testing.T, home, apiURL string) string {
	t.Helper()

	outputs := `{
  "version": "1.3",
  "auth": {
    "aws_region": "us-east-1",
    "user_pool_id": "us-east-1_Smoke",
    "user_pool_client_id": "smoke-client"
  },
  "custom": {
    "api_name": "smokeApi",
    "api_region": "us-east-1",
    "api_url": "` + apiURL + `"
  }
}`

	path := filepath.Join(home, "amplify_outputs.json")
	require.NoError(t, os.WriteFile(path, []byte(outputs), 0o644))
	return path
}
