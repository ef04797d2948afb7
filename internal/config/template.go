package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Template is the annotated configuration written by init.
const Template = `# consent-gate configuration

[log]
level = "info"   # trace, debug, info, warn, error
json = false

[server]
addr = ":8080"
# Upstream HTML application to proxy. Requests fail with 502 when unset.
upstream = "http://127.0.0.1:3000"
read_header_timeout = "10s"
shutdown_timeout = "15s"

[plugin]
network = "unix"   # unix or tcp
address = "/tmp/consent-gate.sock"

[consent]
cbid = ""                  # domain group ID from the Cookiebot manager
language = ""              # empty lets the banner detect the visitor language
blocking_mode = "manual"   # auto or manual
uc_attribute = "async"     # async, defer or ""
declaration_attribute = "async"
no_output = false
iab = false
ccpa = false
ccpa_domain_group_id = ""
gtm = false
gtm_id = ""
data_layer = "dataLayer"
gcm = false
gcm_url_passthrough = false
consent_api = false

# Script handles the consent runtime must never hold back.
ignore_scripts = ["jquery-core", "underscore", "backbone"]

# Per-code overrides of the consent API signature table.
# [consent.mapping."n=1;p=1;s=1;m=0"]
# statistics-anonymous = false

# Integrations are enabled by their catalog default unless overridden here.
[integrations.ga_google_analytics]
enabled = true
categories = ["statistics"]

[integrations.simple_share_buttons_adder]
enabled = false
categories = ["marketing"]
placeholder = "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to Social Share buttons."

# What the upstream application emits, so integrations can be detected.
[host]
scripts = []

[[host.actions]]
stage = "late-head"
callback = "ga_google_analytics_tracking_code"
`

// WriteTemplate writes Template to path, creating parent directories.
// An existing file is only replaced when force is set.
func WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
