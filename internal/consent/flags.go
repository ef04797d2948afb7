package consent

import (
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// Flag names used as sub-keys in the mapping tables.
const (
	FlagPreferences         = string(pkg.CategoryPreferences)
	FlagStatistics          = string(pkg.CategoryStatistics)
	FlagStatisticsAnonymous = string(pkg.CategoryStatisticsAnonymous)
	FlagMarketing           = string(pkg.CategoryMarketing)
)

// Flags is the complete per-category grant record for one signature code.
type Flags struct {
	Preferences         bool `json:"preferences" yaml:"preferences"`
	Statistics          bool `json:"statistics" yaml:"statistics"`
	StatisticsAnonymous bool `json:"statistics-anonymous" yaml:"statistics-anonymous"`
	Marketing           bool `json:"marketing" yaml:"marketing"`
}

// DenyAll grants nothing beyond necessary cookies.
var DenyAll = Flags{}

// Get returns the flag stored under name.
func (f Flags) Get(name string) (bool, bool) {
	switch name {
	case FlagPreferences:
		return f.Preferences, true
	case FlagStatistics:
		return f.Statistics, true
	case FlagStatisticsAnonymous:
		return f.StatisticsAnonymous, true
	case FlagMarketing:
		return f.Marketing, true
	}
	return false, false
}

// set stores v under name and reports whether name is a known flag.
func (f *Flags) set(name string, v bool) bool {
	switch name {
	case FlagPreferences:
		f.Preferences = v
	case FlagStatistics:
		f.Statistics = v
	case FlagStatisticsAnonymous:
		f.StatisticsAnonymous = v
	case FlagMarketing:
		f.Marketing = v
	default:
		return false
	}
	return true
}

// Allows reports whether the flags grant every one of cats.
// Necessary is always granted.
func (f Flags) Allows(cats ...pkg.Category) bool {
	for _, c := range cats {
		if c == pkg.CategoryNecessary {
			continue
		}
		if v, ok := f.Get(string(c)); !ok || !v {
			return false
		}
	}
	return true
}

// Granted lists the granted categories in canonical order, necessary included.
func (f Flags) Granted() []pkg.Category {
	out := []pkg.Category{pkg.CategoryNecessary}
	for _, c := range pkg.OrderedCategories[1:] {
		if v, _ := f.Get(string(c)); v {
			out = append(out, c)
		}
	}
	return out
}
