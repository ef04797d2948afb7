package blocker

import (
	"strings"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// Skip reason constants
const (
	SkipOutsideScript  = "outside-script"
	SkipIgnored        = "consent-ignore"
	SkipAlreadyBlocked = "already-blocked"
	SkipClaimed        = "claimed-by-earlier-rule"
)

// Stats tracks what a single rewrite pass did.
type Stats struct {
	Matches     int
	Blocked     int
	Merged      int
	Skipped     int
	SkipReasons map[string]int
}

func newStats() Stats {
	return Stats{SkipReasons: make(map[string]int)}
}

func (s *Stats) skip(reason string) {
	s.Skipped++
	s.SkipReasons[reason]++
}

// Rewritten returns how many script tags were changed.
func (s Stats) Rewritten() int {
	return s.Blocked + s.Merged
}

// ApplyRules rewrites every script element in buf that contains a pattern of
// rules so it only runs once the consent runtime reactivates it. Buffers
// without matches are returned unchanged.
func ApplyRules(buf string, rules []pkg.BlockRule) string {
	out, _ := Rewrite(buf, rules)
	return out
}

// Rewrite is ApplyRules with statistics.
//
// Rules are applied in the given order. The first rule matching a script
// element decides its categories; later matches on the same element are
// skipped. Script registration rules are ignored here.
func Rewrite(buf string, rules []pkg.BlockRule) (string, Stats) {
	stats := newStats()

	active := make([]pkg.BlockRule, 0, len(rules))
	for _, r := range rules {
		if r.ScriptTag || r.Pattern == "" || len(r.Categories) == 0 {
			continue
		}
		if strings.Contains(buf, r.Pattern) {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return buf, stats
	}

	elems := scanScripts(buf)
	replacements := make(map[int]string)
	owner := make(map[int]int)

	for ri, r := range active {
		for off := 0; ; {
			k := strings.Index(buf[off:], r.Pattern)
			if k < 0 {
				break
			}
			at := off + k
			off = at + len(r.Pattern)
			stats.Matches++

			idx := enclosing(elems, at)
			if idx < 0 {
				stats.skip(SkipOutsideScript)
				continue
			}
			if o, ok := owner[idx]; ok {
				if _, replaced := replacements[idx]; replaced && o != ri {
					stats.skip(SkipClaimed)
				}
				continue
			}
			owner[idx] = ri

			el := elems[idx]
			tag := parseStartTag(buf[el.start:el.tagEnd])

			rewritten, reason, merged := decide(tag, r.Categories)
			if reason != "" {
				stats.skip(reason)
				continue
			}

			replacements[idx] = rewritten
			if merged {
				stats.Merged++
			} else {
				stats.Blocked++
			}
		}
	}

	if len(replacements) == 0 {
		return buf, stats
	}

	var sb strings.Builder
	sb.Grow(len(buf) + 64*len(replacements))

	last := 0
	for i, el := range elems {
		rep, ok := replacements[i]
		if !ok {
			continue
		}
		sb.WriteString(buf[last:el.start])
		sb.WriteString(rep)
		last = el.tagEnd
	}
	sb.WriteString(buf[last:])

	return sb.String(), stats
}

// decide returns the rewritten start tag, or a skip reason when the tag must
// stay as it is.
func decide(tag startTag, cats []pkg.Category) (string, string, bool) {
	existing, hasConsent := tag.get(pkg.AttrConsent)
	if !hasConsent {
		return tag.block(cats), "", false
	}

	if strings.EqualFold(strings.TrimSpace(existing), pkg.ConsentIgnore) {
		return "", SkipIgnored, false
	}

	if typ, ok := tag.get(pkg.AttrType); ok && strings.EqualFold(strings.TrimSpace(typ), pkg.InertType) {
		return "", SkipAlreadyBlocked, false
	}

	merged := append(pkg.SplitCategories(existing), cats...)
	return tag.block(pkg.NormalizeCategories(merged)), "", true
}
