package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcheck/internal/models"
)

const testCatalog = `
kpis:
  - kpi_code: major_price_change
    kpi_name: Major Price Change
    category: Pricing
    numerator_field: current_price
    precision_type: PERCENTAGE
thresholds:
  - kpi_code: major_price_change
    threshold: 5
`

const testTrialBalance = "Type,Category,Financial Account,Ending Balance\nAssets,Investment,Equities,1500\nLiabilities,Account Payable,AP,-200\n"

// writeTestConfig writes a config with storage under a temp dir and
// returns the config path and the dir.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
[storage]
data = "sqlite"
kpis = "database"
runs = "badger"

[storage.sqlite]
path = %q

[storage.badger]
path = %q

[cache]
enabled = false
`, filepath.Join(dir, "navcheck.db"), filepath.Join(dir, "runs"))

	path := filepath.Join(dir, "navcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "navcheck "), out)
}

func TestKPIsCmd_Catalog(t *testing.T) {
	cfg, dir := writeTestConfig(t)
	catalog := filepath.Join(dir, "kpis.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0644))

	out, err := execute(t, "kpis", "--config", cfg, "--kpis", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "major_price_change")
	assert.Contains(t, out, "Major Price Change")
}

func TestImportCmd(t *testing.T) {
	cfg, dir := writeTestConfig(t)
	catalog := filepath.Join(dir, "kpis.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0644))
	tb := filepath.Join(dir, "trial_balance.csv")
	require.NoError(t, os.WriteFile(tb, []byte(testTrialBalance), 0644))

	out, err := execute(t, "import", "--config", cfg,
		"--kpis", catalog,
		"--workbook", tb, "--fund", "NexBridge", "--source", "Bluefield", "--date", "2024-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported, 0 skipped")
	assert.Contains(t, out, "2 trial balance, 0 portfolio, 0 dividends")

	out, err = execute(t, "kpis", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "major_price_change")
}

func TestImportCmd_NothingToImport(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	_, err := execute(t, "import", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to import")
}

func TestRunCmd_JSONAndExport(t *testing.T) {
	cfg, dir := writeTestConfig(t)
	tb := filepath.Join(dir, "trial_balance.csv")
	require.NoError(t, os.WriteFile(tb, []byte(testTrialBalance), 0644))

	out, err := execute(t, "run", "--config", cfg, "--json",
		"--fund", "NexBridge", "--source-a", "Bluefield", "--date-a", "2024-01-31",
		"--workbook-a", tb)
	require.NoError(t, err)

	var run models.ValidationRun
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, "NexBridge", run.Fund)
	require.NotEmpty(t, run.ID)

	md := filepath.Join(dir, "run.md")
	out, err = execute(t, "export", "--config", cfg, "--run", run.ID, "--out", md)
	require.NoError(t, err)
	assert.Contains(t, out, md)

	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Validation Run: NexBridge")
}

func TestRunCmd_StrictWithoutData(t *testing.T) {
	cfg, _ := writeTestConfig(t)

	out, err := execute(t, "run", "--config", cfg, "--strict", "--skip-file-checks",
		"--fund", "NexBridge", "--source-a", "Bluefield", "--date-a", "2024-01-31")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "Validation run: NexBridge")
	assert.Contains(t, out, "Data Availability")
}

func TestRunCmd_MissingFlags(t *testing.T) {
	_, err := execute(t, "run", "--fund", "NexBridge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestExportCmd_UnsupportedFormat(t *testing.T) {
	cfg, dir := writeTestConfig(t)
	_, err := execute(t, "export", "--config", cfg, "--run", "abc", "--out", filepath.Join(dir, "run.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}
