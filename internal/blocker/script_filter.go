package blocker

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// ScriptFilter rewrites the attributes of registered scripts. Handles matched
// by a script rule are made inert and labelled with the rule's categories;
// handles on the ignore list are marked so the consent runtime skips them.
// NOTE: Use NewScriptFilter to create a ScriptFilter.
type ScriptFilter struct {
	logger hclog.Logger
	rules  RuleSource
	ignore map[string]struct{}
}

// NewScriptFilter constructs a ScriptFilter.
func NewScriptFilter(logger hclog.Logger, rules RuleSource, ignore []string) *ScriptFilter {
	ig := make(map[string]struct{}, len(ignore))
	for _, h := range ignore {
		if h = strings.TrimSpace(h); h != "" {
			ig[h] = struct{}{}
		}
	}

	return &ScriptFilter{
		logger: logger.Named("script-filter"),
		rules:  rules,
		ignore: ig,
	}
}

// Filter implements consent.ScriptFilter.
func (f *ScriptFilter) Filter(handle, src string, attrs pkg.Attributes) pkg.Attributes {
	if _, ok := f.ignore[handle]; ok {
		return attrs.Set(pkg.AttrConsent, pkg.ConsentIgnore)
	}

	rule, ok := f.lookup(handle)
	if !ok {
		return attrs
	}

	existing, hasConsent := attrs.Get(pkg.AttrConsent)
	cats := rule.Categories

	if hasConsent {
		if strings.EqualFold(strings.TrimSpace(existing), pkg.ConsentIgnore) {
			return attrs
		}
		if typ, ok := attrs.Get(pkg.AttrType); ok && strings.EqualFold(strings.TrimSpace(typ), pkg.InertType) {
			return attrs
		}
		cats = pkg.NormalizeCategories(append(pkg.SplitCategories(existing), cats...))
	}

	f.logger.Debug("blocking script handle", "handle", handle, "src", src, "categories", pkg.JoinCategories(cats))

	out := attrs.Delete(pkg.AttrType).Delete(pkg.AttrConsent)
	return append(pkg.Attributes{
		{Key: pkg.AttrType, Val: pkg.InertType},
		{Key: pkg.AttrConsent, Val: pkg.JoinCategories(cats)},
	}, out...)
}

// lookup returns the first registered script rule for handle.
func (f *ScriptFilter) lookup(handle string) (pkg.BlockRule, bool) {
	if f.rules == nil {
		return pkg.BlockRule{}, false
	}
	for _, r := range f.rules.ScriptRules() {
		if r.Pattern == handle && len(r.Categories) > 0 {
			return r, true
		}
	}
	return pkg.BlockRule{}, false
}
