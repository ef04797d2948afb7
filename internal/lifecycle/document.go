package lifecycle

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

type stageFilter struct {
	stage pkg.Stage
	filter
}

// RenderDocument writes a complete HTML page around body, with head-stage
// output inside <head> and footer output before </body>.
func (p *Pipeline) RenderDocument(ctx context.Context, w io.Writer, title string, body string) error {
	head, err := p.RenderStages(ctx, pkg.StageEarlyHead, pkg.StageLateHead)
	if err != nil {
		return err
	}
	footer, err := p.Render(ctx, pkg.StageFooter)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w,
		"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n%s</head>\n<body>\n%s\n%s</body>\n</html>\n",
		html.EscapeString(title), head, body, footer,
	)
	return err
}

// Transform rewrites an existing HTML document: every stage's output filters
// run over the whole document, then head-stage output is injected after the
// opening <head> tag and footer output before the closing </body> tag.
// Fragments without those tags are filtered but receive no injected output.
func (p *Pipeline) Transform(ctx context.Context, doc string) string {
	ctx, span := p.tracer.Start(ctx, "lifecycle.transform",
		trace.WithAttributes(attribute.Int("bytes", len(doc))),
	)
	defer span.End()

	p.mu.RLock()
	var filters []stageFilter
	for _, st := range pkg.OrderedStages {
		for _, f := range p.filters[st] {
			filters = append(filters, stageFilter{stage: st, filter: f})
		}
	}
	p.mu.RUnlock()

	for _, sf := range filters {
		doc = p.runFilter(ctx, sf.stage, sf.filter, doc)
	}

	headAt, footAt := landmarks(doc)

	var head, footer string
	if headAt >= 0 {
		head, _ = p.RenderStages(ctx, pkg.StageEarlyHead, pkg.StageLateHead)
	}
	if footAt >= 0 {
		footer, _ = p.Render(ctx, pkg.StageFooter)
	}
	if head == "" && footer == "" {
		return doc
	}

	var out bytes.Buffer
	out.Grow(len(doc) + len(head) + len(footer) + 2)
	switch {
	case headAt >= 0 && footAt >= 0:
		out.WriteString(doc[:headAt])
		out.WriteString("\n" + head)
		out.WriteString(doc[headAt:footAt])
		out.WriteString(footer)
		out.WriteString(doc[footAt:])
	case headAt >= 0:
		out.WriteString(doc[:headAt])
		out.WriteString("\n" + head)
		out.WriteString(doc[headAt:])
	default:
		out.WriteString(doc[:footAt])
		out.WriteString(footer)
		out.WriteString(doc[footAt:])
	}
	return out.String()
}

// landmarks returns the offset just past the first <head> start tag and the
// offset of the last </body> end tag, or -1 for either when missing.
func landmarks(doc string) (headEnd int, bodyClose int) {
	headEnd, bodyClose = -1, -1

	z := xhtml.NewTokenizer(bytes.NewReader([]byte(doc)))
	offset := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return headEnd, bodyClose
		}
		n := len(z.Raw())
		switch tt {
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if headEnd < 0 && atom.Lookup(name) == atom.Head {
				headEnd = offset + n
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Body {
				bodyClose = offset
			}
		}
		offset += n
	}
}
