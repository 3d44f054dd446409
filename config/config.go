// Package config loads the queuectl configuration file: remote API
// coordinates, OAuth client credentials, proxy settings, and console
// defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/queueops/queuectl/faults"
)

const (
	EnvConfigPath = "QUEUECTL_CONFIG"
	EnvEditor     = "QUEUECTL_EDITOR"
	EnvPassphrase = "QUEUECTL_PASSPHRASE"

	DefaultListenAddr = "127.0.0.1:8787"
	DefaultProxyURL   = "http://127.0.0.1:8787"
	DefaultPageSize   = 50
)

type Config struct {
	// Remote contact-center API.
	BaseURL          string            `yaml:"base_url"`
	TokenURL         string            `yaml:"token_url"`
	ClientID         string            `yaml:"client_id"`
	ClientSecret     string            `yaml:"client_secret"`
	ClientSecretFile string            `yaml:"client_secret_file"`
	DefaultHeaders   map[string]string `yaml:"default_headers"`
	InsecureTLS      bool              `yaml:"insecure_tls"`

	// Admin proxy.
	ListenAddr string `yaml:"listen_addr"`
	ProxyURL   string `yaml:"proxy_url"`

	// CredentialsFile, when set, is a YAML file with client_id and
	// client_secret that the running proxy watches for rotation.
	CredentialsFile string `yaml:"credentials_file"`

	// Console defaults.
	Channel       string `yaml:"channel"`
	PageSize      int    `yaml:"page_size"`
	ArchiveDir    string `yaml:"archive_dir"`
	DefaultEditor string `yaml:"default_editor"`
}

func DefaultPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(EnvConfigPath)); fromEnv != "" {
		return fromEnv
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "queuectl.yaml"
	}
	return filepath.Join(home, ".config", "queuectl", "config.yaml")
}

// Load reads and validates the configuration file at path; an empty path
// falls back to DefaultPath.
func Load(path string) (Config, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, faults.NewTypedError(faults.ValidationError, "config file not found: "+resolved, err)
		}
		return Config{}, faults.NewTypedError(faults.InternalError, "failed to read config file", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, faults.NewTypedError(faults.ValidationError, "config file is not valid YAML", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if strings.TrimSpace(c.ProxyURL) == "" {
		c.ProxyURL = DefaultProxyURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if editor := strings.TrimSpace(os.Getenv(EnvEditor)); editor != "" {
		c.DefaultEditor = editor
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return faults.NewTypedError(faults.ValidationError, "base_url is required", nil)
	}
	if strings.TrimSpace(c.TokenURL) == "" {
		return faults.NewTypedError(faults.ValidationError, "token_url is required", nil)
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return faults.NewTypedError(faults.ValidationError, "client_id is required", nil)
	}
	if strings.TrimSpace(c.ClientSecret) == "" && strings.TrimSpace(c.ClientSecretFile) == "" {
		return faults.NewTypedError(faults.ValidationError, "one of client_secret or client_secret_file is required", nil)
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		return faults.NewTypedError(faults.ValidationError, "page_size must be between 1 and 1000", nil)
	}
	return nil
}
