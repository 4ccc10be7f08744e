package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"new-launcher/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("JUPYTERLAB_SETTINGS_DIR", "/srv/settings")

	cfg := config.DefaultConfig()
	assert.Equal(t, "/srv/settings", cfg.UserSettingsDir)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, "/", cfg.BaseURL)
	assert.False(t, cfg.Auth.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestDefaultSettingsDirFromJupyterConfigDir(t *testing.T) {
	t.Setenv("JUPYTERLAB_SETTINGS_DIR", "")
	t.Setenv("JUPYTER_CONFIG_DIR", "/etc/jupyter")

	cfg := config.DefaultConfig()
	assert.Equal(t, filepath.Join("/etc/jupyter", "lab", "user-settings"), cfg.UserSettingsDir)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
port: 9999
base_url: user/alice/
user_settings_dir: /tmp/alice
auth:
  token: secret
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "/user/alice", cfg.BaseURL)
	assert.Equal(t, "/tmp/alice", cfg.UserSettingsDir)
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.True(t, cfg.LogRequests)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "port: 9999\n")
	t.Setenv("NEW_LAUNCHER_PORT", "7777")
	t.Setenv("NEW_LAUNCHER_AUTH_TOKEN", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Port)
	assert.Equal(t, "from-env", cfg.Auth.Token)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSearchPathWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8888, cfg.Port)
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "user_settings_dir: ~/settings\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "settings"), cfg.UserSettingsDir)
}

func TestLoadTestServerConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "testdata", "server_test_config.yaml"))
	require.NoError(t, err)

	want := config.Testing(cfg.UserSettingsDir)
	assert.Equal(t, want, cfg)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "0.0.0.0:8888", cfg.Addr())
}

func TestValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("tok"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"port zero", func(c *config.Config) { c.Port = 0 }, "port"},
		{"port too large", func(c *config.Config) { c.Port = 70000 }, "port"},
		{"no settings dir", func(c *config.Config) { c.UserSettingsDir = "" }, "user_settings_dir"},
		{"body limit", func(c *config.Config) { c.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"token and hash", func(c *config.Config) {
			c.Auth.Token = "tok"
			c.Auth.TokenHash = string(hash)
		}, "only one"},
		{"bad hash", func(c *config.Config) { c.Auth.TokenHash = "plain" }, "bcrypt"},
		{"good hash", func(c *config.Config) { c.Auth.TokenHash = string(hash) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Testing(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":            "/",
		"/":           "/",
		"//":          "/",
		"lab":         "/lab",
		"/lab/":       "/lab",
		"/user/bob//": "/user/bob",
	}
	for in, want := range cases {
		assert.Equal(t, want, config.NormalizeBaseURL(in), in)
	}
}

func TestDumpRedactsSecrets(t *testing.T) {
	cfg := config.Testing("/tmp/settings")
	cfg.Auth.Token = "super-secret"

	var buf bytes.Buffer
	require.NoError(t, cfg.Dump(&buf))
	assert.NotContains(t, buf.String(), "super-secret")

	var back config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "/tmp/settings", back.UserSettingsDir)
	assert.Equal(t, "<redacted>", back.Auth.Token)
	assert.Equal(t, "super-secret", cfg.Auth.Token, "Dump must not modify the config")
}
