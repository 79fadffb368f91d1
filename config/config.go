// Package config loads and saves the nmprofiles configuration file.
//
// Config file locations (priority order):
//  1. $NMPROFILES_CONFIG
//  2. ./nmprofiles.yaml
//  3. ~/.config/nmprofiles/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"nmprofiles/profilemenu"
)

const (
	EnvConfigPath    = "NMPROFILES_CONFIG"
	localConfigName  = "nmprofiles.yaml"
	userConfigDir    = ".config/nmprofiles"
	userConfigName   = "config.yaml"
	profilesFileName = "profiles.yaml"
	logFileName      = "nmprofiles-debug.log"
)

// Config is the on-disk configuration.
type Config struct {
	// Rooms is the static list of named locations offered in the room branch.
	Rooms        []string `yaml:"rooms"`
	WifiTimeout  Duration `yaml:"wifi_timeout,omitempty"`
	ProfilesPath string   `yaml:"profiles_path,omitempty"`
	LogFile      string   `yaml:"log_file,omitempty"`
	Debug        bool     `yaml:"debug,omitempty"`
	WarningShown bool     `yaml:"warning_shown"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), DefaultConfigPath(), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. A missing file yields defaults.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), path, nil
	}
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, path, nil
}

// Save writes config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.WifiTimeout <= 0 {
		c.WifiTimeout = Duration(profilemenu.DefaultWifiTimeout)
	}
	if c.ProfilesPath == "" {
		c.ProfilesPath = filepath.Join(userDir(), profilesFileName)
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(os.TempDir(), logFileName)
	}
	if c.Rooms == nil {
		c.Rooms = []string{}
	}
}

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	candidates := []string{localConfigName, DefaultConfigPath()}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultConfigPath is where a new config file is saved.
func DefaultConfigPath() string {
	return filepath.Join(userDir(), userConfigName)
}

func userDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return userConfigDir
	}
	return filepath.Join(home, userConfigDir)
}
