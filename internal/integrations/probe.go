package integrations

import (
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// StaticProbe is a fixed capability listing, used when the host environment
// cannot be inspected directly (for example an upstream application behind
// the proxy).
type StaticProbe struct {
	actions map[pkg.Stage]map[string]struct{}
	scripts map[string]struct{}
}

// NewStaticProbe constructs an empty StaticProbe.
func NewStaticProbe() *StaticProbe {
	return &StaticProbe{
		actions: make(map[pkg.Stage]map[string]struct{}),
		scripts: make(map[string]struct{}),
	}
}

// WithAction records that callback is attached to stage.
func (p *StaticProbe) WithAction(stage pkg.Stage, callback string) *StaticProbe {
	if p.actions[stage] == nil {
		p.actions[stage] = make(map[string]struct{})
	}
	p.actions[stage][callback] = struct{}{}
	return p
}

// WithScript records that a script is registered under handle.
func (p *StaticProbe) WithScript(handle string) *StaticProbe {
	p.scripts[handle] = struct{}{}
	return p
}

// HasAction implements consent.Probe.
func (p *StaticProbe) HasAction(stage pkg.Stage, callback string) bool {
	_, ok := p.actions[stage][callback]
	return ok
}

// HasScript implements consent.Probe.
func (p *StaticProbe) HasScript(handle string) bool {
	_, ok := p.scripts[handle]
	return ok
}
