package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"
)

const (
	defaultPort          = 5000
	defaultAPIVersion    = 600
	defaultSchemaBaseURL = "http://redfish.dmtf.org/schemas/v1/"
)

type OneViewConfig struct {
	Endpoint        string `yaml:"endpoint"          mapstructure:"endpoint"`
	Username        string `yaml:"username"          mapstructure:"username"`
	Password        string `yaml:"password"          mapstructure:"password"`
	AuthLoginDomain string `yaml:"auth_login_domain" mapstructure:"auth_login_domain"`
	APIVersion      int    `yaml:"api_version"       mapstructure:"api_version"`
	Insecure        bool   `yaml:"insecure"          mapstructure:"insecure"`
	TimeoutSec      int    `yaml:"timeout_sec"       mapstructure:"timeout_sec"`
}

type RedfishConfig struct {
	SchemasFile       string `yaml:"schemas_file"       mapstructure:"schemas_file"`
	SchemaBaseURL     string `yaml:"schema_base_url"    mapstructure:"schema_base_url"`
	SubscriptionsFile string `yaml:"subscriptions_file" mapstructure:"subscriptions_file"`
}

type OtelConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

type Config struct {
	Address        string        `yaml:"address"         mapstructure:"address"`
	Port           int           `yaml:"port"            mapstructure:"port"`
	LogLevel       string        `yaml:"log_level"       mapstructure:"log_level"`
	TrustedProxies string        `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
	OneView        OneViewConfig `yaml:"oneview"         mapstructure:"oneview"`
	Redfish        RedfishConfig `yaml:"redfish"         mapstructure:"redfish"`
	Otel           OtelConfig    `yaml:"otel"            mapstructure:"otel"`
	Log            logr.Logger   `yaml:"-"               mapstructure:"-"`
}

// NewConfig reads config.yaml from the usual locations, writing a default
// file when none exists, and overlays environment variables.
func NewConfig() (*Config, error) {
	return Load(viper.New(), "/app/", "/config/", ".")
}

// Load reads the configuration through v, searching paths in order.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	conf := &Config{}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		configFile := "config.yaml"
		if len(paths) > 0 {
			configFile = filepath.Join(paths[len(paths)-1], configFile)
		}
		if err := v.SafeWriteConfigAs(configFile); err != nil {
			return nil, fmt.Errorf("unable to write default config file %s: %w", configFile, err)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file after writing defaults: %w", err)
		}
	}

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey); err != nil {
			return nil, fmt.Errorf("unable to bind env %s: %w", envKey, err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	conf.Log = defaultLogger(conf.LogLevel)

	return conf, conf.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "0.0.0.0")
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("trusted_proxies", "")

	v.SetDefault("oneview.endpoint", "https://oneview.local")
	v.SetDefault("oneview.username", "")
	v.SetDefault("oneview.password", "")
	v.SetDefault("oneview.auth_login_domain", "LOCAL")
	v.SetDefault("oneview.api_version", defaultAPIVersion)
	v.SetDefault("oneview.insecure", true)
	v.SetDefault("oneview.timeout_sec", 30)

	v.SetDefault("redfish.schemas_file", "schemas.yaml")
	v.SetDefault("redfish.schema_base_url", defaultSchemaBaseURL)
	v.SetDefault("redfish.subscriptions_file", "")

	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", true)
}

// Validate reports the first setting that would keep the gateway from serving.
func (c *Config) Validate() error {
	if c.OneView.Endpoint == "" {
		return fmt.Errorf("missing value for oneview.endpoint")
	}
	u, err := url.Parse(c.OneView.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid oneview.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid oneview.endpoint %q: scheme must be http or https", c.OneView.Endpoint)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Redfish.SchemasFile == "" {
		return fmt.Errorf("missing value for redfish.schemas_file")
	}
	return nil
}

// ListenAddress is the host:port the HTTP server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// defaultLogger uses the slog logr implementation.
func defaultLogger(level string) logr.Logger {
	// source file and function can be long. This makes the logs less readable.
	// truncate source file and function to last 3 parts for improved readability.
	customAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			ss, ok := a.Value.Any().(*slog.Source)
			if !ok || ss == nil {
				return a
			}
			f := strings.Split(ss.Function, "/")
			if len(f) > 3 {
				ss.Function = filepath.Join(f[len(f)-3:]...)
			}
			p := strings.Split(ss.File, "/")
			if len(p) > 3 {
				ss.File = filepath.Join(p[len(p)-3:]...)
			}

			return a
		}

		return a
	}
	opts := &slog.HandlerOptions{AddSource: true, ReplaceAttr: customAttr}
	switch level {
	case "debug":
		opts.Level = slog.LevelDebug
	default:
		opts.Level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, opts))

	return logr.FromSlogHandler(log.Handler())
}
