package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/navcheck/internal/app"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/server"
)

// writeTestConfig writes a config using temp-dir storage.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
environment = "test"

[server]
rate_limit = 0

[storage]
data = "sqlite"
kpis = "database"
runs = "badger"

[storage.sqlite]
path = %q

[storage.badger]
path = %q

[logging]
level = "disabled"
`, filepath.Join(dir, "navcheck.db"), filepath.Join(dir, "runs"))

	path := filepath.Join(dir, "navcheck.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// testServer creates an httptest.Server with the full navcheck-server handler for testing.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := app.NewApp(context.Background(), writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// TestHealthEndpoint verifies GET /api/health returns 200 with {"status":"ok"}.
func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

// TestRunWithoutData verifies a run over an empty database completes with
// the data-availability error and is recorded in run history.
func TestRunWithoutData(t *testing.T) {
	ts := testServer(t)

	reqBody := `{"fund":"NexBridge","source_a":"Bluefield","date_a":"2024-01-31","skip_file_checks":true}`
	resp, err := http.Post(ts.URL+"/api/validations/run", "application/json", strings.NewReader(reqBody))
	if err != nil {
		t.Fatalf("POST /api/validations/run failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var run models.ValidationRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("failed to decode run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected a run id")
	}
	if len(run.Results) != 1 || !run.Results[0].IsError() {
		t.Fatalf("expected a single error result, got %+v", run.Results)
	}

	list, err := http.Get(ts.URL + "/api/validations/runs?fund=NexBridge")
	if err != nil {
		t.Fatalf("GET /api/validations/runs failed: %v", err)
	}
	defer list.Body.Close()
	var body struct {
		Runs []models.RunSummary `json:"runs"`
	}
	if err := json.NewDecoder(list.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode runs: %v", err)
	}
	if len(body.Runs) != 1 || body.Runs[0].RunID != run.ID {
		t.Errorf("expected run %s in history, got %+v", run.ID, body.Runs)
	}
}
