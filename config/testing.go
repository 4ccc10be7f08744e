package config

// Testing returns the configuration used by integration tests.
//
// Never use it in production: it listens on every interface and disables
// authentication. testdata/server_test_config.yaml holds the same settings
// for running the binary under an end-to-end test harness.
func Testing(settingsDir string) *Config {
	cfg := DefaultConfig()
	cfg.IP = "0.0.0.0"
	cfg.UserSettingsDir = settingsDir
	cfg.LogRequests = false
	cfg.Auth = AuthConfig{}
	return cfg
}
