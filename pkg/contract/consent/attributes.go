package consent

import (
	"html"
	"strings"
)

const (
	// AttrType is the attribute that decides whether a browser executes a script.
	AttrType = "type"

	// AttrConsent carries the categories the consent runtime checks before
	// reactivating a script.
	AttrConsent = "data-cookieconsent"

	// InertType makes browsers skip a script until the runtime swaps it back.
	InertType = "text/plain"

	// ConsentIgnore tells the consent runtime to leave a script alone.
	ConsentIgnore = "ignore"
)

// Attr is a single script tag attribute. An empty Val renders as a bare
// attribute (e.g. async).
type Attr struct {
	Key string
	Val string
}

// Attributes is an ordered attribute list for a registered script.
type Attributes []Attr

// Get returns the value of key and whether it is present.
func (a Attributes) Get(key string) (string, bool) {
	for _, at := range a {
		if strings.EqualFold(at.Key, key) {
			return at.Val, true
		}
	}
	return "", false
}

// Set returns a copy of a with key set to val, appending when absent.
func (a Attributes) Set(key, val string) Attributes {
	out := a.Clone()
	for i, at := range out {
		if strings.EqualFold(at.Key, key) {
			out[i].Val = val
			return out
		}
	}
	return append(out, Attr{Key: key, Val: val})
}

// Delete returns a copy of a without key.
func (a Attributes) Delete(key string) Attributes {
	out := make(Attributes, 0, len(a))
	for _, at := range a {
		if !strings.EqualFold(at.Key, key) {
			out = append(out, at)
		}
	}
	return out
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// String renders the attributes as they appear inside a start tag, with a
// leading space when non-empty.
func (a Attributes) String() string {
	var sb strings.Builder
	for _, at := range a {
		sb.WriteByte(' ')
		sb.WriteString(at.Key)
		if at.Val != "" {
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(at.Val))
			sb.WriteByte('"')
		}
	}
	return sb.String()
}
