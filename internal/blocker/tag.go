package blocker

import (
	"html"
	"strings"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// attrSpan is one attribute of a raw start tag. start includes the leading
// whitespace so the span can be cut without leaving a gap.
type attrSpan struct {
	name  string
	val   string
	start int
	end   int
}

// startTag is a raw start tag split into its name and attributes.
type startTag struct {
	raw     string
	nameEnd int
	attrs   []attrSpan
}

func parseStartTag(raw string) startTag {
	t := startTag{raw: raw}

	i := 1
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	t.nameEnd = i

	for i < len(raw) {
		lead := i
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		nameStart := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		name := strings.ToLower(raw[nameStart:i])

		j := i
		for j < len(raw) && isSpace(raw[j]) {
			j++
		}

		var val string
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isSpace(raw[j]) {
				j++
			}
			switch {
			case j < len(raw) && (raw[j] == '"' || raw[j] == '\''):
				q := raw[j]
				k := strings.IndexByte(raw[j+1:], q)
				if k < 0 {
					val = raw[j+1:]
					j = len(raw)
				} else {
					val = raw[j+1 : j+1+k]
					j = j + 1 + k + 1
				}
			default:
				k := j
				for k < len(raw) && !isSpace(raw[k]) && raw[k] != '>' {
					k++
				}
				val = raw[j:k]
				j = k
			}
			i = j
		}

		t.attrs = append(t.attrs, attrSpan{
			name:  name,
			val:   html.UnescapeString(val),
			start: lead,
			end:   i,
		})
	}

	return t
}

// get returns the first value of name, matching browser duplicate handling.
func (t startTag) get(name string) (string, bool) {
	for _, a := range t.attrs {
		if a.name == name {
			return a.val, true
		}
	}
	return "", false
}

// block renders the tag with an inert type and the given consent categories.
// Existing type and consent attributes are dropped; every other byte is kept.
func (t startTag) block(cats []pkg.Category) string {
	var sb strings.Builder
	sb.Grow(len(t.raw) + 64)

	sb.WriteString(t.raw[:t.nameEnd])
	sb.WriteString(` ` + pkg.AttrType + `="` + pkg.InertType + `" ` + pkg.AttrConsent + `="`)
	sb.WriteString(html.EscapeString(pkg.JoinCategories(cats)))
	sb.WriteByte('"')

	last := t.nameEnd
	for _, a := range t.attrs {
		if a.name != pkg.AttrType && a.name != pkg.AttrConsent {
			continue
		}
		sb.WriteString(t.raw[last:a.start])
		last = a.end
	}
	sb.WriteString(t.raw[last:])

	return sb.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
