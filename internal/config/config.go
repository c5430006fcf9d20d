package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"codesurf/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Version     int        `toml:"version"`
	Endpoint    string     `toml:"endpoint"`     // backend instance base URL
	AccessToken string     `toml:"access_token"` // empty for anonymous access
	Context     string     `toml:"context"`      // default search context, e.g. "global"
	Pattern     string     `toml:"pattern"`      // default pattern type
	UISettings  UISettings `toml:"ui"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowSuggestions bool `toml:"show_suggestions"`
	PagerForDetails bool `toml:"pager_for_details"` // open long documents in the pager
}

// PatternType returns the configured default pattern type, falling back to
// literal for unknown values.
func (c *Config) PatternType() domain.PatternType {
	switch domain.PatternType(c.Pattern) {
	case domain.PatternRegexp:
		return domain.PatternRegexp
	case domain.PatternStructural:
		return domain.PatternStructural
	default:
		return domain.PatternLiteral
	}
}

// QueryPrefix returns the default-context query prefix, or "" when no
// context is configured.
func (c *Config) QueryPrefix() string {
	if c.Context == "" {
		return ""
	}
	return "context:" + c.Context
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	appDir := filepath.Join(configDir, "codesurf")
	os.MkdirAll(appDir, 0755)

	return &configService{
		filePath: filepath.Join(appDir, "config.toml"),
	}
}

// Path returns the config file location.
func (cs *configService) Path() string { return cs.filePath }

// Load loads the configuration from file
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}

	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Endpoint: "https://sourcegraph.com",
		Context:  "global",
		Pattern:  string(domain.PatternLiteral),
		UISettings: UISettings{
			ShowSuggestions: true,
			PagerForDetails: true,
		},
	}
}
