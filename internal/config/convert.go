package config

import (
	"strings"

	"github.com/peteski22/consent-gate/internal/consent"
	"github.com/peteski22/consent-gate/internal/integrations"
	"github.com/peteski22/consent-gate/internal/tags"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// TagOptions returns the options for the consent head tags.
func (c ConsentConfig) TagOptions() tags.Options {
	return tags.Options{
		CBID:                 strings.TrimSpace(c.CBID),
		Language:             c.Language,
		BlockingMode:         strings.ToLower(c.BlockingMode),
		UCAttribute:          c.UCAttribute,
		DeclarationAttribute: c.DeclarationAttribute,
		NoOutput:             c.NoOutput,
		IAB:                  c.IAB,
		CCPA:                 c.CCPA,
		CCPADomainGroupID:    c.CCPADomainGroupID,
		GTM:                  c.GTM,
		GTMID:                c.GTMID,
		DataLayer:            c.DataLayer,
		GCM:                  c.GCM,
		GCMURLPassthrough:    c.GCMURLPassthrough,
	}
}

// Override returns the signature mapping overrides.
func (c ConsentConfig) Override() consent.Override {
	o := make(consent.Override, len(c.Mapping))
	for code, flags := range c.Mapping {
		o[code] = flags
	}
	return o
}

// IntegrationSettings returns the per-integration operator settings keyed by option name.
func (c *Config) IntegrationSettings() map[string]integrations.Settings {
	out := make(map[string]integrations.Settings, len(c.Integrations))
	for name, ic := range c.Integrations {
		out[name] = integrations.Settings{
			Enabled:     ic.Enabled,
			Categories:  ic.Categories,
			Placeholder: ic.Placeholder,
		}
	}
	return out
}

// Probe returns a static probe listing the configured host capabilities.
func (h HostConfig) Probe() *integrations.StaticProbe {
	p := integrations.NewStaticProbe()
	for _, a := range h.Actions {
		p.WithAction(pkg.Stage(a.Stage), a.Callback)
	}
	for _, s := range h.Scripts {
		p.WithScript(s)
	}
	return p
}
