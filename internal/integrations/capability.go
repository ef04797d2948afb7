package integrations

import (
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

const (
	// CapabilityEarlyHead means the integration prints its tracking code early in the head.
	CapabilityEarlyHead Capability = "early-head-hook"

	// CapabilityLateHead means the integration prints its tracking code late in the head.
	CapabilityLateHead Capability = "late-head-hook"

	// CapabilityFooter means the integration prints its tracking code in the footer.
	CapabilityFooter Capability = "footer-hook"

	// CapabilityScriptHandle means the integration registers a script handle
	// instead of printing inline output.
	CapabilityScriptHandle Capability = "script-handle"
)

// Capability is a way an integration can expose its tracking scripts.
type Capability string

// OrderedCapabilities is the order capabilities are probed in. The first
// present capability is the one rules are attached for.
var OrderedCapabilities = []Capability{
	CapabilityEarlyHead,
	CapabilityLateHead,
	CapabilityFooter,
	CapabilityScriptHandle,
}

// Stage returns the render stage a hook capability belongs to.
func (c Capability) Stage() (pkg.Stage, bool) {
	switch c {
	case CapabilityEarlyHead:
		return pkg.StageEarlyHead, true
	case CapabilityLateHead:
		return pkg.StageLateHead, true
	case CapabilityFooter:
		return pkg.StageFooter, true
	}
	return "", false
}

// Declares reports whether in declares capability c at all.
func (in Integration) Declares(c Capability) bool {
	if c == CapabilityScriptHandle {
		return in.ScriptHandle != ""
	}
	return in.Callback != "" && len(in.Patterns) > 0
}

// present reports whether probe shows capability c for in.
func (in Integration) present(c Capability, probe pkg.Probe) bool {
	if !in.Declares(c) {
		return false
	}
	if stage, ok := c.Stage(); ok {
		return probe.HasAction(stage, in.Callback)
	}
	return probe.HasScript(in.ScriptHandle)
}
