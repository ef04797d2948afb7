package integrations

import (
	"slices"
	"sync"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// RuleSet holds attached block rules in registration order.
// NOTE: Use NewRuleSet to create a RuleSet.
type RuleSet struct {
	mu    sync.RWMutex
	rules []pkg.BlockRule
	keys  map[string]struct{}
}

// NewRuleSet constructs an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{keys: make(map[string]struct{})}
}

// Attach adds r unless a rule with the same identity is already attached.
// It reports whether the rule was added.
func (s *RuleSet) Attach(r pkg.BlockRule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Key()
	if r.ScriptTag {
		key = "script|" + r.Pattern
	}
	if _, ok := s.keys[key]; ok {
		return false
	}

	r.Categories = slices.Clone(r.Categories)
	s.keys[key] = struct{}{}
	s.rules = append(s.rules, r)
	return true
}

// ForStage returns the output rules attached to stage.
func (s *RuleSet) ForStage(stage pkg.Stage) []pkg.BlockRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pkg.BlockRule
	for _, r := range s.rules {
		if !r.ScriptTag && r.Stage == stage {
			out = append(out, r)
		}
	}
	return out
}

// ScriptRules returns the script registration rules.
func (s *RuleSet) ScriptRules() []pkg.BlockRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pkg.BlockRule
	for _, r := range s.rules {
		if r.ScriptTag {
			out = append(out, r)
		}
	}
	return out
}

// All returns every attached rule.
func (s *RuleSet) All() []pkg.BlockRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.rules)
}

// Stages returns the stages that have output rules, in render order.
func (s *RuleSet) Stages() []pkg.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pkg.Stage
	for _, st := range pkg.OrderedStages {
		for _, r := range s.rules {
			if !r.ScriptTag && r.Stage == st {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// Len returns the number of attached rules.
func (s *RuleSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rules)
}
