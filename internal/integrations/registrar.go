package integrations

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

const (
	// StatePending means no rules are attached for the integration yet.
	StatePending State = iota

	// StateAttached means the integration's rules are attached.
	StateAttached
)

// State tracks an integration through activation. Transitions only go from
// pending to attached.
type State int

func (s State) String() string {
	if s == StateAttached {
		return "attached"
	}
	return "pending"
}

// Settings are the operator overrides for one integration.
type Settings struct {
	// Enabled overrides Integration.EnabledByDefault when set.
	Enabled *bool

	// Categories replace Integration.DefaultCategories when non-empty.
	Categories []string

	// Placeholder replaces Integration.Placeholder when non-empty.
	Placeholder string
}

// Activation records the outcome of activating one integration.
type Activation struct {
	Integration string
	Capability  Capability
	Stage       pkg.Stage
	Categories  []pkg.Category
	Attached    int
}

// Registrar attaches block rules for installed integrations.
// NOTE: Use NewRegistrar to create a Registrar.
type Registrar struct {
	logger   hclog.Logger
	rules    *RuleSet
	catalog  []Integration
	settings map[string]Settings

	mu     sync.Mutex
	states map[string]State
}

// NewRegistrar constructs a Registrar that attaches into rules.
func NewRegistrar(logger hclog.Logger, rules *RuleSet, catalog []Integration, settings map[string]Settings) *Registrar {
	s := make(map[string]Settings, len(settings))
	for k, v := range settings {
		s[strings.ToLower(k)] = v
	}

	return &Registrar{
		logger:   logger.Named("integrations"),
		rules:    rules,
		catalog:  slices.Clone(catalog),
		settings: s,
		states:   make(map[string]State, len(catalog)),
	}
}

// Rules returns the rule set the registrar attaches into.
func (r *Registrar) Rules() *RuleSet {
	return r.rules
}

// Catalog returns the integrations known to the registrar.
func (r *Registrar) Catalog() []Integration {
	return slices.Clone(r.catalog)
}

// Lookup returns the integration registered under option.
func (r *Registrar) Lookup(option string) (Integration, error) {
	for _, in := range r.catalog {
		if in.Option == option {
			return in, nil
		}
	}
	return Integration{}, fmt.Errorf("%w: %q", ErrUnknownIntegration, option)
}

// Enabled reports whether in should be activated.
func (r *Registrar) Enabled(in Integration) bool {
	if s, ok := r.settings[in.Option]; ok && s.Enabled != nil {
		return *s.Enabled
	}
	return in.EnabledByDefault
}

// Categories returns the categories that gate in. Configured names that are
// not consent categories are dropped; if none remain the defaults apply.
func (r *Registrar) Categories(in Integration) []pkg.Category {
	if s, ok := r.settings[in.Option]; ok && len(s.Categories) > 0 {
		cats := pkg.NormalizeCategories(s.Categories)
		if len(cats) > 0 {
			return cats
		}
		r.logger.Warn("no valid categories configured, using defaults",
			"integration", in.Option,
			"configured", strings.Join(s.Categories, ","),
		)
	}
	return pkg.NormalizeCategories(in.DefaultCategories)
}

// Placeholder returns the placeholder text for in.
func (r *Registrar) Placeholder(in Integration) string {
	if s, ok := r.settings[in.Option]; ok && s.Placeholder != "" {
		return s.Placeholder
	}
	return in.Placeholder
}

// State returns the activation state of the integration registered under option.
func (r *Registrar) State(option string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.states[option]
}

// Activate attaches rules for every enabled integration that probe shows as
// installed. Integrations already attached are left alone, so calling
// Activate again only picks up newly installed integrations.
func (r *Registrar) Activate(probe pkg.Probe) []Activation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Activation

	for _, in := range r.catalog {
		if r.states[in.Option] == StateAttached {
			r.logger.Trace("integration already attached", "integration", in.Option)
			continue
		}

		if !r.Enabled(in) {
			r.logger.Debug("integration disabled", "integration", in.Option)
			continue
		}

		cats := r.Categories(in)
		if len(cats) == 0 {
			r.logger.Warn("integration has no categories, skipping", "integration", in.Option)
			continue
		}

		act, ok := r.attach(in, cats, probe)
		if !ok {
			r.logger.Debug("integration not installed", "integration", in.Option)
			continue
		}

		r.states[in.Option] = StateAttached
		r.logger.Info("integration attached",
			"integration", in.Option,
			"capability", act.Capability,
			"stage", act.Stage,
			"categories", pkg.JoinCategories(cats),
			"rules", act.Attached,
		)
		out = append(out, act)
	}

	return out
}

// attach registers rules for the first capability probe shows for in.
func (r *Registrar) attach(in Integration, cats []pkg.Category, probe pkg.Probe) (Activation, bool) {
	for _, c := range OrderedCapabilities {
		if !in.present(c, probe) {
			continue
		}

		act := Activation{
			Integration: in.Option,
			Capability:  c,
			Categories:  cats,
		}

		if stage, ok := c.Stage(); ok {
			act.Stage = stage
			for _, p := range in.Patterns {
				if r.rules.Attach(pkg.BlockRule{
					Pattern:    p,
					Categories: cats,
					Stage:      stage,
					Priority:   in.Priority,
					Source:     in.Option,
				}) {
					act.Attached++
				}
			}
			return act, true
		}

		if r.rules.Attach(pkg.BlockRule{
			Pattern:    in.ScriptHandle,
			Categories: cats,
			Priority:   in.Priority,
			ScriptTag:  true,
			Source:     in.Option,
		}) {
			act.Attached++
		}
		return act, true
	}

	return Activation{}, false
}
