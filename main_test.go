package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peteski22/consent-gate/internal/config"
	"github.com/peteski22/consent-gate/internal/consent"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{
			name:   "yaml",
			format: "yaml",
			want:   "preferences: false\nstatistics: false\nstatistics-anonymous: false\nmarketing: true\n",
		},
		{
			name:   "json",
			format: "JSON",
			want:   "{\n  \"preferences\": false,\n  \"statistics\": false,\n  \"statistics-anonymous\": false,\n  \"marketing\": true\n}\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, tc.format, consent.Flags{Marketing: true}))
			assert.Equal(t, tc.want, buf.String())
		})
	}

	err := encode(&bytes.Buffer{}, "xml", nil)
	require.ErrorIs(t, err, errUnknownFormat)
}

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "consent_gate.toml")

	out, err := execute(t, "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created config file: "+path)

	_, err = execute(t, "init", "--output", path)
	require.ErrorIs(t, err, config.ErrConfigExists)

	out, err = execute(t, "--config", path, "resolve", "n=1;p=0;s=1;m=0", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"preferences":false,"statistics":true,"statistics-anonymous":false,"marketing":false}`, out)

	_, err = execute(t, "--config", path, "resolve", "n=1;p=2;s=1;m=0")
	require.ErrorIs(t, err, consent.ErrUnknownSignature)

	out, err = execute(t, "--config", path, "resolve", "n=1;p=2;s=1;m=0", "--deny-all", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"preferences":false,"statistics":false,"statistics-anonymous":false,"marketing":false}`, out)

	out, err = execute(t, "--config", path, "rules", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "integration: ga_google_analytics")
	assert.Contains(t, out, "capability: late-head-hook")
	assert.Contains(t, out, "pattern: gtag(")

	out, err = execute(t, "--config", path, "render", "--title", "Preview")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Preview</title>")
}
