package consent

import (
	"slices"
	"strings"
)

const (
	// CategoryNecessary covers cookies the site cannot work without.
	CategoryNecessary Category = "necessary"

	// CategoryPreferences covers cookies that remember visitor choices.
	CategoryPreferences Category = "preferences"

	// CategoryStatistics covers analytics that identify the visitor.
	CategoryStatistics Category = "statistics"

	// CategoryStatisticsAnonymous covers analytics without visitor identification.
	CategoryStatisticsAnonymous Category = "statistics-anonymous"

	// CategoryMarketing covers advertising and cross-site tracking.
	CategoryMarketing Category = "marketing"
)

// Category is a class of tracking purpose a visitor grants or denies independently.
type Category string

// OrderedCategories is the closed category set in canonical order.
// Joined category lists are always emitted in this order.
var OrderedCategories = []Category{
	CategoryNecessary,
	CategoryPreferences,
	CategoryStatistics,
	CategoryStatisticsAnonymous,
	CategoryMarketing,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	return slices.Contains(OrderedCategories, c)
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name, ignoring case and surrounding space.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// NormalizeCategories drops unknown names, removes duplicates and returns the
// result in canonical order.
func NormalizeCategories[S ~string](names []S) []Category {
	seen := make(map[Category]struct{}, len(names))
	for _, n := range names {
		if c, ok := ParseCategory(string(n)); ok {
			seen[c] = struct{}{}
		}
	}

	out := make([]Category, 0, len(seen))
	for _, c := range OrderedCategories {
		if _, ok := seen[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// JoinCategories renders categories as the comma separated list read by the
// client-side consent runtime.
func JoinCategories(cats []Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// SplitCategories parses a comma separated category list, normalizing it.
func SplitCategories(s string) []Category {
	return NormalizeCategories(strings.Split(s, ","))
}
