package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3000",
	"log_level": "warn",
	"enable_test_routes": true,
	"trusted_subnet": "10.0.0.0/8",
	"trust_proxy_headers": true,
	"seed_users": true,
	"shutdown_timeout": "3s"
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnableTestRoutes)
	assert.False(t, cfg.SeedUsers)
	assert.Empty(t, cfg.TrustedSubnet)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.EnableTestRoutes)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.True(t, cfg.SeedUsers)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, jsonPath, cfg.ConfigFile)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4001")
	t.Setenv("ENABLE_TEST_ROUTES", "false")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4001", cfg.RunAddr) // env overrides json
	assert.False(t, cfg.EnableTestRoutes)
	assert.Equal(t, "warn", cfg.LogLevel) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("SERVER_ADDRESS", ":4001")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := New(WithArgs([]string{
		"-a", ":6000",
		"-c", jsonPath,
		"-t=false",
		"-trust-proxy=false",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.EnableTestRoutes)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.True(t, cfg.SeedUsers) // from JSON
	assert.Equal(t, jsonPath, cfg.ConfigFile)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_TEST_ROUTES", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "1m")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.EnableTestRoutes)
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad log level", key: "LOG_LEVEL", val: "loud"},
		{name: "bad address", key: "SERVER_ADDRESS", val: "nowhere"},
		{name: "bad subnet", key: "TRUSTED_SUBNET", val: "10.0.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingJSONFile(t *testing.T) {
	t.Setenv("CONFIG", "definitely-missing-config.json")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestLookupConfigFlag(t *testing.T) {
	assert.Equal(t, "a.json", lookupConfigFlag([]string{"-a", ":1", "-c", "a.json"}))
	assert.Equal(t, "b.json", lookupConfigFlag([]string{"-c=b.json"}))
	assert.Equal(t, "", lookupConfigFlag([]string{"-a", ":1"}))
}
