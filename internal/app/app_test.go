package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"librabranch/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Branches:               []string{"North", "South"},
		ExchangeDir:            t.TempDir(),
		OverdueScanInterval:    10 * time.Millisecond,
		LogLevel:               "info",
		ServiceName:            "librarian-test",
		LoginAttemptsPerMinute: 5,
	}
}

func TestNewWithConfig(t *testing.T) {
	a, err := NewWithConfig(testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	branches := a.Network().Branches()
	require.Len(t, branches, 2)
	assert.Equal(t, "North", branches[0].Name())
	assert.Equal(t, "South", branches[1].Name())
}

func TestImportIncoming(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewWithConfig(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	incoming := filepath.Join(cfg.ExchangeDir, "South.tsv")
	require.NoError(t, os.WriteFile(incoming, []byte("Kind\tTitle\tBranch\nBook\tDune\tNorth\n"), 0o644))

	require.NoError(t, a.importIncoming(context.Background()))

	south, ok := a.Network().Branch("South")
	require.True(t, ok)
	require.Len(t, south.Media(), 1)
	assert.Equal(t, "Dune", south.Media()[0].Title())

	assert.NoFileExists(t, incoming)
	assert.FileExists(t, incoming+importedSuffix)

	require.NoError(t, a.importIncoming(context.Background()))
	assert.Len(t, south.Media(), 1, "consumed files are not imported again")
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := NewWithConfig(testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.run(ctx))
}
