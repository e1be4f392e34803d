package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	conf, err := Load(viper.New(), dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.Equal(t, "0.0.0.0", conf.Address)
	assert.Equal(t, 5000, conf.Port)
	assert.Equal(t, 600, conf.OneView.APIVersion)
	assert.Equal(t, "LOCAL", conf.OneView.AuthLoginDomain)
	assert.Equal(t, "schemas.yaml", conf.Redfish.SchemasFile)
	assert.Equal(t, "http://redfish.dmtf.org/schemas/v1/", conf.Redfish.SchemaBaseURL)
	assert.Empty(t, conf.Redfish.SubscriptionsFile)
}

func TestLoad_ReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
port: 8443
oneview:
  endpoint: https://10.0.0.5
  username: administrator
redfish:
  schemas_file: /etc/redfish/schemas.yaml
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600))
	t.Setenv("ONEVIEW_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	conf, err := Load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 8443, conf.Port)
	assert.Equal(t, "https://10.0.0.5", conf.OneView.Endpoint)
	assert.Equal(t, "administrator", conf.OneView.Username)
	assert.Equal(t, "secret", conf.OneView.Password)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, "/etc/redfish/schemas.yaml", conf.Redfish.SchemasFile)
	assert.Equal(t, "0.0.0.0:8443", conf.ListenAddress())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:    5000,
			OneView: OneViewConfig{Endpoint: "https://oneview.local"},
			Redfish: RedfishConfig{SchemasFile: "schemas.yaml"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing endpoint", mutate: func(c *Config) { c.OneView.Endpoint = "" }, wantErr: true},
		{name: "endpoint without scheme", mutate: func(c *Config) { c.OneView.Endpoint = "oneview.local" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "missing schemas file", mutate: func(c *Config) { c.Redfish.SchemasFile = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
