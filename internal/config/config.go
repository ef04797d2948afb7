package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	"github.com/peteski22/consent-gate/internal/tags"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CONSENT_GATE_CONSENT_CBID.
	EnvPrefix = "CONSENT_GATE"

	// DefaultName is the config file name searched for without --config.
	DefaultName = "consent_gate"

	// DefaultPath is where init writes the template.
	DefaultPath = "./configs/consent_gate.toml"
)

// Config represents the main configuration
type Config struct {
	Log          LogConfig                    `mapstructure:"log"`
	Server       ServerConfig                 `mapstructure:"server"`
	Plugin       PluginConfig                 `mapstructure:"plugin"`
	Consent      ConsentConfig                `mapstructure:"consent"`
	Integrations map[string]IntegrationConfig `mapstructure:"integrations"`
	Host         HostConfig                   `mapstructure:"host"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig contains reverse proxy settings
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	Upstream          string        `mapstructure:"upstream"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// PluginConfig contains gRPC plugin listener settings
type PluginConfig struct {
	Network string `mapstructure:"network"`
	Address string `mapstructure:"address"`
}

// ConsentConfig contains the consent banner and tag settings
type ConsentConfig struct {
	CBID                 string `mapstructure:"cbid"`
	Language             string `mapstructure:"language"`
	BlockingMode         string `mapstructure:"blocking_mode"`
	UCAttribute          string `mapstructure:"uc_attribute"`
	DeclarationAttribute string `mapstructure:"declaration_attribute"`
	NoOutput             bool   `mapstructure:"no_output"`
	IAB                  bool   `mapstructure:"iab"`
	CCPA                 bool   `mapstructure:"ccpa"`
	CCPADomainGroupID    string `mapstructure:"ccpa_domain_group_id"`
	GTM                  bool   `mapstructure:"gtm"`
	GTMID                string `mapstructure:"gtm_id"`
	DataLayer            string `mapstructure:"data_layer"`
	GCM                  bool   `mapstructure:"gcm"`
	GCMURLPassthrough    bool   `mapstructure:"gcm_url_passthrough"`
	ConsentAPI           bool   `mapstructure:"consent_api"`

	// IgnoreScripts are script handles marked to be left alone by the runtime.
	IgnoreScripts []string `mapstructure:"ignore_scripts"`

	// Mapping overrides the consent API signature table per code and flag.
	Mapping map[string]map[string]bool `mapstructure:"mapping"`
}

// IntegrationConfig overrides one catalog integration
type IntegrationConfig struct {
	Enabled     *bool    `mapstructure:"enabled"`
	Categories  []string `mapstructure:"categories"`
	Placeholder string   `mapstructure:"placeholder"`
}

// HostConfig lists what the upstream application is known to emit, used in
// place of inspecting a live render lifecycle.
type HostConfig struct {
	Actions []HostAction `mapstructure:"actions"`
	Scripts []string     `mapstructure:"scripts"`
}

// HostAction is a callback attached to a render stage.
type HostAction struct {
	Stage    string `mapstructure:"stage"`
	Callback string `mapstructure:"callback"`
}

// Load reads configuration from path, or from ./configs/consent_gate.toml or
// ./consent_gate.toml when path is empty. A missing default file is not an
// error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultName)
		v.SetConfigType("toml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.upstream", "")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("plugin.network", "unix")
	v.SetDefault("plugin.address", "/tmp/consent-gate.sock")

	v.SetDefault("consent.cbid", "")
	v.SetDefault("consent.language", "")
	v.SetDefault("consent.blocking_mode", tags.BlockingManual)
	v.SetDefault("consent.uc_attribute", "async")
	v.SetDefault("consent.declaration_attribute", "async")
	v.SetDefault("consent.no_output", false)
	v.SetDefault("consent.iab", false)
	v.SetDefault("consent.ccpa", false)
	v.SetDefault("consent.ccpa_domain_group_id", "")
	v.SetDefault("consent.gtm", false)
	v.SetDefault("consent.gtm_id", "")
	v.SetDefault("consent.data_layer", tags.DefaultDataLayer)
	v.SetDefault("consent.gcm", false)
	v.SetDefault("consent.gcm_url_passthrough", false)
	v.SetDefault("consent.consent_api", false)
}

// Validate reports the first problem found with the configuration.
func (c *Config) Validate() error {
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	switch strings.ToLower(c.Consent.BlockingMode) {
	case tags.BlockingAuto, tags.BlockingManual:
	default:
		return fmt.Errorf("%w: consent.blocking_mode %q", ErrInvalidConfig, c.Consent.BlockingMode)
	}

	for key, attr := range map[string]string{
		"consent.uc_attribute":          c.Consent.UCAttribute,
		"consent.declaration_attribute": c.Consent.DeclarationAttribute,
	} {
		switch attr {
		case "", "async", "defer":
		default:
			return fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, attr)
		}
	}

	for _, a := range c.Host.Actions {
		if !pkg.Stage(a.Stage).Valid() {
			return fmt.Errorf("%w: host action %q has unknown stage %q", ErrInvalidConfig, a.Callback, a.Stage)
		}
		if a.Callback == "" {
			return fmt.Errorf("%w: host action at %q has no callback", ErrInvalidConfig, a.Stage)
		}
	}

	switch c.Plugin.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("%w: plugin.network %q", ErrInvalidConfig, c.Plugin.Network)
	}

	return nil
}

// LoggerOptions returns hclog options for a root logger called name.
func (l LogConfig) LoggerOptions(name string) *hclog.LoggerOptions {
	return &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(l.Level),
		JSONFormat: l.JSON,
	}
}
