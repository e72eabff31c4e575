package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveAPIKey_ExplicitKeyWins(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env")

	cfg := Default()
	cfg.Backend.APIKey = "sk-explicit"
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Equal(t, "sk-explicit", cfg.Backend.APIKey)
}

func TestResolveAPIKey_FromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env")

	cfg := Default()
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Equal(t, "sk-env", cfg.Backend.APIKey)
}

func TestResolveAPIKey_FromMCPConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("MCP_CONFIG_DIR", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte(`{
		"mcpServers": {
			"wayland-screenshot": {
				"env": {"OPENROUTER_API_KEY": "sk-file"}
			}
		}
	}`), 0o644))

	cfg := Default()
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Equal(t, "sk-file", cfg.Backend.APIKey)
}

func TestResolveAPIKey_MalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("MCP_CONFIG_DIR", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte("not json"), 0o644))

	cfg := Default()
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Empty(t, cfg.Backend.APIKey, "a broken config file yields no key, not a failure")
}

func TestResolveAPIKey_MissingServerEntry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("MCP_CONFIG_DIR", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte(`{
		"mcpServers": {"other-server": {"env": {}}}
	}`), 0o644))

	cfg := Default()
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Empty(t, cfg.Backend.APIKey)
}

func TestResolveAPIKey_MissingFile(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("MCP_CONFIG_DIR", t.TempDir())

	cfg := Default()
	cfg.ResolveAPIKey(zap.NewNop())
	assert.Empty(t, cfg.Backend.APIKey)
}
