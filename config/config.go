package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	IP              string     `yaml:"ip" mapstructure:"ip"`
	Port            int        `yaml:"port" mapstructure:"port"`
	BaseURL         string     `yaml:"base_url" mapstructure:"base_url"`
	UserSettingsDir string     `yaml:"user_settings_dir" mapstructure:"user_settings_dir"`
	MaxBodyBytes    int64      `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	LogRequests     bool       `yaml:"log_requests" mapstructure:"log_requests"`
	Auth            AuthConfig `yaml:"auth" mapstructure:"auth"`
}

// AuthConfig holds the server token. Either the token itself or its bcrypt
// hash may be set; with neither, requests are not authenticated.
type AuthConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	TokenHash string `yaml:"token_hash" mapstructure:"token_hash"`
}

// Enabled reports whether requests must carry a token.
func (a AuthConfig) Enabled() bool {
	return a.Token != "" || a.TokenHash != ""
}

const envPrefix = "NEW_LAUNCHER"

func DefaultConfig() *Config {
	return &Config{
		IP:              "127.0.0.1",
		Port:            8888,
		BaseURL:         "/",
		UserSettingsDir: defaultSettingsDir(),
		MaxBodyBytes:    1 << 20,
		LogRequests:     true,
	}
}

// defaultSettingsDir follows JupyterLab: $JUPYTERLAB_SETTINGS_DIR, otherwise
// lab/user-settings under the Jupyter config dir.
func defaultSettingsDir() string {
	if dir := os.Getenv("JUPYTERLAB_SETTINGS_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("JUPYTER_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "lab", "user-settings")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jupyter", "lab", "user-settings")
}

// Load reads configuration from path, or when path is empty from
// config.yaml in the working directory or ~/.jupyter/new-launcher. Finding
// no config file in the search path is not an error; an explicit path that
// cannot be read is. NEW_LAUNCHER_* environment variables
// override file values (NEW_LAUNCHER_AUTH_TOKEN for auth.token).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".jupyter", "new-launcher"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.UserSettingsDir = expandHome(cfg.UserSettingsDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("ip", cfg.IP)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("user_settings_dir", cfg.UserSettingsDir)
	v.SetDefault("max_body_bytes", cfg.MaxBodyBytes)
	v.SetDefault("log_requests", cfg.LogRequests)
	v.SetDefault("auth.token", cfg.Auth.Token)
	v.SetDefault("auth.token_hash", cfg.Auth.TokenHash)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

// Validate checks the configuration for errors and normalizes BaseURL.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.UserSettingsDir == "" {
		return fmt.Errorf("config: user_settings_dir is required")
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("config: max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.Auth.Token != "" && c.Auth.TokenHash != "" {
		return fmt.Errorf("config: set only one of auth.token and auth.token_hash")
	}
	if c.Auth.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.TokenHash)); err != nil {
			return fmt.Errorf("config: auth.token_hash is not a bcrypt hash: %w", err)
		}
	}
	c.BaseURL = NormalizeBaseURL(c.BaseURL)
	return nil
}

// NormalizeBaseURL returns base with exactly one leading slash and no
// trailing slash, except for the root "/".
func NormalizeBaseURL(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return "/"
	}
	return "/" + base
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// Dump writes the effective configuration as YAML with secrets redacted.
func (c *Config) Dump(w io.Writer) error {
	out := *c
	if out.Auth.Token != "" {
		out.Auth.Token = "<redacted>"
	}
	if out.Auth.TokenHash != "" {
		out.Auth.TokenHash = "<redacted>"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return err
	}
	return enc.Close()
}
