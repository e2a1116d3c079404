package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpattn/assetscan/internal/repository"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanTestEnv writes a config.yaml pointing at a SQLite catalog and an error
// log inside a temp directory.
func scanTestEnv(t *testing.T) (dir, dbPath, errorLog string) {
	t.Helper()
	dir = t.TempDir()
	dbPath = filepath.Join(dir, "catalog.db")
	errorLog = filepath.Join(dir, "error.log")

	yaml := fmt.Sprintf("store:\n  driver: sqlite\n  sqlite_path: %q\nlog:\n  error_file: %q\n", dbPath, errorLog)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	return dir, dbPath, errorLog
}

func newScanTestCommand(in string, out *bytes.Buffer, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "scan", RunE: runScan, SilenceUsage: true}
	cmd.Flags().String("config", ".", "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	addScanFlags(cmd)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	return cmd
}

func auditCount(t *testing.T, dbPath string) int64 {
	t.Helper()
	store, err := repository.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()

	stats, err := store.Assets.Stats(context.Background())
	require.NoError(t, err)
	return stats.AuditRecords
}

func TestRunScanUnansweredPromptStillAudits(t *testing.T) {
	original := interactive
	defer func() { interactive = original }()
	interactive = func() bool { return true }

	dir, dbPath, errorLog := scanTestEnv(t)
	var out bytes.Buffer
	cmd := newScanTestCommand("", &out, "--config", dir)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "invalid selection")
	assert.Equal(t, int64(1), auditCount(t, dbPath))

	logged, err := os.ReadFile(errorLog)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Error reading selection")
}

func TestRunScanPathMode(t *testing.T) {
	dir, dbPath, _ := scanTestEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ledger.csv"), []byte("a,b\n1,2\n"), 0o644))

	var out bytes.Buffer
	cmd := newScanTestCommand("", &out, "--config", dir, "--root", root)

	require.NoError(t, cmd.Execute())

	store, err := repository.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()

	asset, err := store.Assets.GetFileAsset(context.Background(), filepath.Join(root, "ledger.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ledger.csv", asset.Name)

	stats, err := store.Assets.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Sheets)
	assert.Equal(t, int64(1), stats.AuditRecords)
}
