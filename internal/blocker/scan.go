package blocker

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// element is the byte span of one script element in a buffer.
type element struct {
	start  int // offset of the opening '<'
	tagEnd int // offset just past the start tag
	end    int // offset just past the end tag, or the buffer end when unclosed
}

// scanScripts locates every script element in buf. Only token boundaries are
// tracked; no tree is built, so malformed markup never fails the scan.
func scanScripts(buf string) []element {
	z := html.NewTokenizer(strings.NewReader(buf))

	var (
		out  []element
		pos  int
		open = -1
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		n := len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if isScript(z) {
				out = append(out, element{start: pos, tagEnd: pos + n, end: pos + n})
				open = len(out) - 1
			}
		case html.EndTagToken:
			if open >= 0 && isScript(z) {
				out[open].end = pos + n
				open = -1
			}
		case html.TextToken:
			if open >= 0 {
				out[open].end = pos + n
			}
		}

		pos += n
	}

	if open >= 0 {
		out[open].end = len(buf)
	}

	return out
}

func isScript(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return atom.Lookup(name) == atom.Script
}

// enclosing returns the index of the element containing offset, or -1.
func enclosing(elems []element, offset int) int {
	i := sort.Search(len(elems), func(i int) bool {
		return elems[i].end > offset
	})
	if i < len(elems) && elems[i].start <= offset {
		return i
	}
	return -1
}
