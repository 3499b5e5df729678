//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/internal/upstreamtest"
)

// TestServerStartStop starts the built binary and checks graceful
// shutdown on SIGINT.
func TestServerStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	writeTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18080"

auth:
  api_key: "sk-cli-test"

journal:
  enabled: false

telemetry:
  logging:
    level: "warn"
    format: "json"
  metrics:
    enabled: true
`)

	binaryPath := buildGanymedeBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "run", "--config", configFile)
	cmd.Dir = tmpDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForHealthy("http://127.0.0.1:18080/health", 10*time.Second) {
		t.Fatalf("server failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	resp, err := http.Get("http://127.0.0.1:18080/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Errorf("failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		// Exit code 130 is the shell convention for SIGINT.
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok || exitErr.ExitCode() != 130 {
				t.Logf("shutdown output - Stdout: %s\nStderr: %s", stdout.String(), stderr.String())
				t.Errorf("unexpected shutdown error: %v", err)
			}
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down within 5 seconds")
	}

	if !strings.Contains(stdout.String(), "Server listening on") {
		t.Errorf("startup output missing listen banner: %s", stdout.String())
	}
}

// TestValidateCommand checks config validation through the binary.
func TestValidateCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	binaryPath := buildGanymedeBinary(t)

	t.Run("valid config", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "valid.yaml")
		writeTestConfig(t, configFile, `
auth:
  api_key: "sk-cli-test"
`)

		output, err := exec.Command(binaryPath, "validate", "--config", configFile).CombinedOutput()
		if err != nil {
			t.Fatalf("validate failed: %v\nOutput: %s", err, output)
		}
		if !bytes.Contains(output, []byte("Configuration valid")) {
			t.Errorf("expected 'Configuration valid' in output, got: %s", output)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "invalid.yaml")
		writeTestConfig(t, configFile, `
auth:
  api_key: "sk-cli-test"

journal:
  enabled: true
  driver: "postgres"
`)

		output, err := exec.Command(binaryPath, "validate", "--config", configFile).CombinedOutput()
		if err == nil {
			t.Fatalf("validate should fail for an unsupported journal driver\nOutput: %s", output)
		}
		if !bytes.Contains(output, []byte("Configuration invalid")) {
			t.Errorf("expected 'Configuration invalid' in output, got: %s", output)
		}
	})

	t.Run("json summary", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "summary.yaml")
		writeTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:9999"

auth:
  api_key: "sk-cli-test"
`)

		output, err := exec.Command(binaryPath, "validate", "--config", configFile, "--format", "json").Output()
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}

		var summary map[string]any
		if err := json.Unmarshal(output, &summary); err != nil {
			t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, output)
		}
		if summary["listen_address"] != "127.0.0.1:9999" {
			t.Errorf("listen_address = %v, want 127.0.0.1:9999", summary["listen_address"])
		}
		if summary["auth_configured"] != true {
			t.Errorf("auth_configured = %v, want true", summary["auth_configured"])
		}
	})
}

// TestModelsCommand checks the catalog listing through the binary.
func TestModelsCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildGanymedeBinary(t)

	output, err := exec.Command(binaryPath, "models", "--format", "json").Output()
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(output, &rows); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, output)
	}
	if len(rows) == 0 {
		t.Fatal("models output is empty")
	}

	var sawDefault bool
	for _, row := range rows {
		if row["id"] == "deepseek-v3" {
			sawDefault = true
		}
	}
	if !sawDefault {
		t.Error("models output missing deepseek-v3")
	}
}

// TestJournalQueryPipeline drives a request through the running binary
// and reads it back with the journal query command.
func TestJournalQueryPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	backend := upstreamtest.New()
	defer backend.Close()
	backend.SetEvents(upstreamtest.Text("Hello from the backend."))

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "journal.db")
	configFile := filepath.Join(tmpDir, "config.yaml")
	writeTestConfig(t, configFile, fmt.Sprintf(`
server:
  listen_address: "127.0.0.1:18081"

auth:
  api_key: "sk-cli-test"

upstream:
  base_url: "%s"
  timeout: 10s

journal:
  enabled: true
  driver: "sqlite"
  path: "%s"

telemetry:
  logging:
    level: "warn"
    format: "json"
  metrics:
    enabled: false
`, backend.URL(), dbPath))

	binaryPath := buildGanymedeBinary(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "run", "--config", configFile)
	cmd.Dir = tmpDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForHealthy("http://127.0.0.1:18081/health", 10*time.Second) {
		t.Fatalf("server failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	sendChatRequest(t, "http://127.0.0.1:18081", "sk-cli-test")

	// Give the async journal writer a moment, then stop the server so
	// its WAL is checkpointed before the query opens the database.
	time.Sleep(1 * time.Second)
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}
	cmd.Wait()

	output, err := exec.Command(binaryPath, "journal", "query",
		"--config", configFile,
		"--limit", "10",
		"--format", "json").CombinedOutput()
	if err != nil {
		t.Fatalf("journal query failed: %v\nOutput: %s", err, output)
	}

	var result map[string]any
	if err := json.Unmarshal(output, &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	records, ok := result["records"].([]any)
	if !ok {
		t.Fatalf("JSON output missing 'records' field: %+v", result)
	}
	if len(records) == 0 {
		t.Fatal("expected journal records, got none")
	}

	first, ok := records[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected record shape: %+v", records[0])
	}
	if first["model"] != "deepseek-v3" {
		t.Errorf("record model = %v, want deepseek-v3", first["model"])
	}
	if first["status"] != "success" {
		t.Errorf("record status = %v, want success", first["status"])
	}
}

func buildGanymedeBinary(t *testing.T) string {
	t.Helper()

	binaryPath, err := filepath.Abs("../bin/ganymede")
	if err != nil {
		t.Fatalf("resolving binary path: %v", err)
	}
	if _, err := os.Stat(binaryPath); err == nil {
		return binaryPath
	}

	t.Log("Building ganymede binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/ganymede")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build ganymede: %v\nOutput: %s", err, output)
	}

	return binaryPath
}

func writeTestConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

// waitForHealthy waits for a health endpoint to return 200.
func waitForHealthy(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func sendChatRequest(t *testing.T, baseURL, apiKey string) {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"model": "deepseek-v3",
		"messages": []map[string]string{
			{"role": "user", "content": "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat completion status = %d, want 200", resp.StatusCode)
	}
}
