package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: development\n"))
	require.NoError(t, err)

	assert.Equal(t, 600_000, cfg.Wallet.KDFIterations)
	assert.Equal(t, "m/44'/60'/0'/0/0", cfg.Wallet.DerivationPath)
	assert.Equal(t, 10*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.False(t, cfg.WeakKDF())
}

func TestLoadExplicitIterations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  env: development
wallet:
  kdf_iterations: 1000
  chain_id: 507
rpc:
  url: http://127.0.0.1:8545
  timeout: 3s
store:
  backend: memory
`))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Wallet.KDFIterations)
	assert.Equal(t, int64(507), cfg.Wallet.ChainID)
	assert.Equal(t, 3*time.Second, cfg.RPC.Timeout)
	assert.True(t, cfg.WeakKDF())
}

func TestProductionRejectsWeakKDF(t *testing.T) {
	_, err := Load(writeConfig(t, `
app:
  env: production
wallet:
  kdf_iterations: 1000
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kdf_iterations")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
store:
  backend: sqlite
`))
	require.Error(t, err)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
