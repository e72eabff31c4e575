package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// mcpConfigFile mirrors the controller's mcp.json layout, reduced to the
// fields the bridge reads.
type mcpConfigFile struct {
	MCPServers map[string]struct {
		Env map[string]string `json:"env"`
	} `json:"mcpServers"`
}

const apiKeyEnv = "OPENROUTER_API_KEY"

// serverEntry is the mcp.json server block carrying the backend key.
const serverEntry = "wayland-screenshot"

// mcpConfigPath returns the controller config file path, honoring
// MCP_CONFIG_DIR with a ~/.roo default.
func mcpConfigPath() string {
	dir := os.Getenv("MCP_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".roo")
	}
	return filepath.Join(dir, "mcp.json")
}

// ResolveAPIKey fills Backend.APIKey when unset: environment first, then the
// controller's mcp.json. A missing or malformed file degrades to no key with
// a warning; the backend rejects keyless VLM calls on its own.
func (c *Config) ResolveAPIKey(logger *zap.Logger) {
	if c.Backend.APIKey != "" {
		return
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		c.Backend.APIKey = key
		return
	}

	path := mcpConfigPath()
	if path == "" {
		return
	}

	key, err := apiKeyFromFile(path)
	if err != nil {
		logger.Warn("could not load backend API key from config file",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}

	c.Backend.APIKey = key
	logger.Info("backend API key loaded from config file", zap.String("path", path))
}

func apiKeyFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var cfg mcpConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	entry, ok := cfg.MCPServers[serverEntry]
	if !ok {
		return "", fmt.Errorf("no %q server entry in %s", serverEntry, path)
	}
	key := entry.Env[apiKeyEnv]
	if key == "" {
		return "", fmt.Errorf("no %s in %q server entry", apiKeyEnv, serverEntry)
	}
	return key, nil
}
