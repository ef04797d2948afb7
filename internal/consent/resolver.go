package consent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DefaultMapping is the built-in table from consent API signature codes to
// category flags. Keys follow the "n=1;p=?;s=?;m=?" form, necessary always 1.
var DefaultMapping = map[string]Flags{
	"n=1;p=1;s=1;m=1": {Preferences: true, Statistics: true, StatisticsAnonymous: true, Marketing: true},
	"n=1;p=1;s=1;m=0": {Preferences: true, Statistics: true, StatisticsAnonymous: true, Marketing: false},
	"n=1;p=1;s=0;m=1": {Preferences: true, Statistics: false, StatisticsAnonymous: false, Marketing: true},
	"n=1;p=1;s=0;m=0": {Preferences: true, Statistics: false, StatisticsAnonymous: false, Marketing: false},
	"n=1;p=0;s=1;m=1": {Preferences: false, Statistics: true, StatisticsAnonymous: false, Marketing: true},
	"n=1;p=0;s=1;m=0": {Preferences: false, Statistics: true, StatisticsAnonymous: false, Marketing: false},
	"n=1;p=0;s=0;m=1": {Preferences: false, Statistics: false, StatisticsAnonymous: false, Marketing: true},
	"n=1;p=0;s=0;m=0": {Preferences: false, Statistics: false, StatisticsAnonymous: false, Marketing: false},
}

// Override holds operator supplied flags keyed by signature code and flag
// name. Missing codes and missing flags fall back to DefaultMapping.
type Override map[string]map[string]bool

// Resolver maps signature codes to complete flag records.
// It is immutable after construction and safe for concurrent use.
// NOTE: Use NewResolver to create a Resolver.
type Resolver struct {
	overrides Override
}

// NewResolver constructs a Resolver over DefaultMapping with the given overrides.
func NewResolver(overrides Override) *Resolver {
	o := make(Override, len(overrides))
	for code, flags := range overrides {
		o[normalizeCode(code)] = maps.Clone(flags)
	}
	return &Resolver{overrides: o}
}

// Resolve returns the flags for code. Each flag comes from the override table
// when present there, otherwise from the default entry for the same code.
// Codes absent from both tables yield ErrUnknownSignature.
func (r *Resolver) Resolve(code string) (Flags, error) {
	code = normalizeCode(code)

	base, known := DefaultMapping[code]
	override, overridden := r.overrides[code]

	if !known && !overridden {
		return DenyAll, fmt.Errorf("%w: %q", ErrUnknownSignature, code)
	}

	for name, v := range override {
		base.set(name, v)
	}

	return base, nil
}

// ResolveOrDenyAll resolves code, treating unknown codes as a denial of every
// optional category.
func (r *Resolver) ResolveOrDenyAll(code string) Flags {
	f, err := r.Resolve(code)
	if err != nil {
		return DenyAll
	}
	return f
}

// Mapping returns the complete merged table, covering every default code and
// every override code.
func (r *Resolver) Mapping() map[string]Flags {
	out := make(map[string]Flags, len(DefaultMapping)+len(r.overrides))
	for _, code := range r.Codes() {
		f, err := r.Resolve(code)
		if err != nil {
			continue
		}
		out[code] = f
	}
	return out
}

// Codes returns every resolvable signature code in sorted order.
func (r *Resolver) Codes() []string {
	set := make(map[string]struct{}, len(DefaultMapping)+len(r.overrides))
	for code := range DefaultMapping {
		set[code] = struct{}{}
	}
	for code := range r.overrides {
		set[code] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

func normalizeCode(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), " ", "")
}
