package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds claimsctl profiles, stored as YAML under the user's
// home directory.
type Config struct {
	CurrentProfile string              `yaml:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
	path           string
}

// Profile is a named gateway endpoint.
type Profile struct {
	GatewayURL string `yaml:"gateway_url"`
}

func DefaultConfig() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles: map[string]*Profile{
			"default": {GatewayURL: "http://localhost:8080"},
		},
	}
}

// LoadConfig reads the config file, falling back to defaults when the
// file does not exist.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfgFile = filepath.Join(home, ".claimsctl", "config.yaml")
	}

	cfg := DefaultConfig()
	cfg.path = cfgFile

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *Config) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".claimsctl", "config.yaml")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// GatewayURL resolves the gateway URL for the named profile. An empty
// name selects the current profile.
func (c *Config) GatewayURL(profile string) (string, error) {
	if profile == "" {
		profile = c.CurrentProfile
	}
	p, ok := c.Profiles[profile]
	if !ok || p.GatewayURL == "" {
		return "", fmt.Errorf("unknown profile: %s", profile)
	}
	return p.GatewayURL, nil
}
