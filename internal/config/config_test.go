package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peteski22/consent-gate/internal/consent"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "consent_gate.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "consent_gate.toml")
	require.NoError(t, WriteTemplate(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.Server.Upstream)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "manual", cfg.Consent.BlockingMode)
	assert.Equal(t, []string{"jquery-core", "underscore", "backbone"}, cfg.Consent.IgnoreScripts)

	require.Contains(t, cfg.Integrations, "simple_share_buttons_adder")
	ssba := cfg.Integrations["simple_share_buttons_adder"]
	require.NotNil(t, ssba.Enabled)
	assert.False(t, *ssba.Enabled)

	require.Len(t, cfg.Host.Actions, 1)
	probe := cfg.Host.Probe()
	assert.True(t, probe.HasAction(pkg.StageLateHead, "ga_google_analytics_tracking_code"))
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "")

	err := WriteTemplate(path, false)
	require.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, WriteTemplate(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template, string(data))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, "async", cfg.Consent.UCAttribute)
	assert.Equal(t, "dataLayer", cfg.Consent.DataLayer)
	assert.Equal(t, "unix", cfg.Plugin.Network)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("CONSENT_GATE_CONSENT_CBID", "from-env")
	t.Setenv("CONSENT_GATE_SERVER_ADDR", ":9999")

	cfg, err := Load(writeConfig(t, "[consent]\ncbid = \"from-file\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Consent.CBID)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "blocking mode", body: "[consent]\nblocking_mode = \"sometimes\"\n"},
		{name: "uc attribute", body: "[consent]\nuc_attribute = \"lazy\"\n"},
		{name: "log level", body: "[log]\nlevel = \"loud\"\n"},
		{name: "host stage", body: "[[host.actions]]\nstage = \"body\"\ncallback = \"x\"\n"},
		{name: "host callback", body: "[[host.actions]]\nstage = \"footer\"\n"},
		{name: "plugin network", body: "[plugin]\nnetwork = \"udp\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[consent]
cbid = " abc "
blocking_mode = "AUTO"
gcm = true

[consent.mapping."n=1;p=1;s=1;m=0"]
statistics-anonymous = false

[integrations.add_to_any]
enabled = false
categories = ["preferences"]
`))
	require.NoError(t, err)

	opts := cfg.Consent.TagOptions()
	assert.Equal(t, "abc", opts.CBID)
	assert.Equal(t, "auto", opts.BlockingMode)
	assert.True(t, opts.GCM)

	r := consent.NewResolver(cfg.Consent.Override())
	flags, err := r.Resolve("n=1;p=1;s=1;m=0")
	require.NoError(t, err)
	assert.Equal(t, consent.Flags{Preferences: true, Statistics: true}, flags)

	settings := cfg.IntegrationSettings()
	require.Contains(t, settings, "add_to_any")
	require.NotNil(t, settings["add_to_any"].Enabled)
	assert.False(t, *settings["add_to_any"].Enabled)
	assert.Equal(t, []string{"preferences"}, settings["add_to_any"].Categories)
}

func TestLoggerOptions(t *testing.T) {
	opts := LogConfig{Level: "debug", JSON: true}.LoggerOptions("consent-gate")
	assert.Equal(t, "consent-gate", opts.Name)
	assert.Equal(t, hclog.Debug, opts.Level)
	assert.True(t, opts.JSONFormat)
}
