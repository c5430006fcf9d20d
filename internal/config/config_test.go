package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesurf/internal/domain"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cs := NewConfigService()
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{
		Version:     1,
		Endpoint:    "https://sg.internal.example.com",
		AccessToken: "sekrit",
		Context:     "myorg",
		Pattern:     "regexp",
		UISettings:  UISettings{ShowSuggestions: true},
	}
	require.NoError(t, cs.SaveToPath(cfg, path))

	loaded, err := cs.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromPathFillsDefaultEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n"), 0600))

	cs := NewConfigService()
	cfg, err := cs.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sourcegraph.com", cfg.Endpoint)
}

func TestLoadFromPathRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint = [broken"), 0600))

	cs := NewConfigService()
	_, err := cs.LoadFromPath(path)
	assert.Error(t, err)
}

func TestPatternType(t *testing.T) {
	assert.Equal(t, domain.PatternRegexp, (&Config{Pattern: "regexp"}).PatternType())
	assert.Equal(t, domain.PatternStructural, (&Config{Pattern: "structural"}).PatternType())
	assert.Equal(t, domain.PatternLiteral, (&Config{Pattern: "literal"}).PatternType())
	assert.Equal(t, domain.PatternLiteral, (&Config{Pattern: "bogus"}).PatternType())
	assert.Equal(t, domain.PatternLiteral, (&Config{}).PatternType())
}

func TestQueryPrefix(t *testing.T) {
	assert.Equal(t, "context:global", (&Config{Context: "global"}).QueryPrefix())
	assert.Empty(t, (&Config{}).QueryPrefix())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://sourcegraph.com", cfg.Endpoint)
	assert.Equal(t, "context:global", cfg.QueryPrefix())
	assert.Equal(t, domain.PatternLiteral, cfg.PatternType())
}
