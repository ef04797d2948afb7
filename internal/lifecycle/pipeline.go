package lifecycle

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tnop "go.opentelemetry.io/otel/trace/noop"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// ActionFunc writes a callback's output for one render stage.
type ActionFunc func(ctx context.Context, w io.Writer) error

type action struct {
	name     string
	priority int
	fn       ActionFunc
}

type filter struct {
	name     string
	priority int
	fn       pkg.OutputFilter
}

type script struct {
	stage  pkg.Stage
	handle string
	src    string
	attrs  pkg.Attributes
}

// Pipeline is the page render lifecycle: callbacks attached to named stages
// emit output, registered scripts are rendered as tags, and output filters
// rewrite each stage's buffer before it is written.
// NOTE: Use NewPipeline to create a new Pipeline.
type Pipeline struct {
	mu            sync.RWMutex
	logger        hclog.Logger
	tracer        trace.Tracer
	actions       map[pkg.Stage][]action
	filters       map[pkg.Stage][]filter
	scripts       []script
	scriptFilters []pkg.ScriptFilter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer records a span per rendered stage on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// NewPipeline constructs a Pipeline.
func NewPipeline(logger hclog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:  logger.Named("lifecycle"),
		tracer:  tnop.NewTracerProvider().Tracer(""),
		actions: make(map[pkg.Stage][]action),
		filters: make(map[pkg.Stage][]filter),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddAction attaches a callback to stage. Callbacks run by ascending
// priority, then in registration order.
func (p *Pipeline) AddAction(stage pkg.Stage, name string, priority int, fn ActionFunc) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if name == "" {
		return ErrMissingName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.actions[stage] = append(p.actions[stage], action{name: name, priority: priority, fn: fn})
	slices.SortStableFunc(p.actions[stage], func(a, b action) int {
		return a.priority - b.priority
	})
	return nil
}

// HasAction reports whether a callback called name is attached to stage.
func (p *Pipeline) HasAction(stage pkg.Stage, name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.ContainsFunc(p.actions[stage], func(a action) bool {
		return a.name == name
	})
}

// AddFilter attaches an output filter to stage. Adding a filter under a name
// already attached to the stage is a no-op and reports false.
func (p *Pipeline) AddFilter(stage pkg.Stage, name string, priority int, fn pkg.OutputFilter) (bool, error) {
	if !stage.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if name == "" {
		return false, ErrMissingName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.ContainsFunc(p.filters[stage], func(f filter) bool { return f.name == name }) {
		return false, nil
	}

	p.filters[stage] = append(p.filters[stage], filter{name: name, priority: priority, fn: fn})
	slices.SortStableFunc(p.filters[stage], func(a, b filter) int {
		return a.priority - b.priority
	})
	return true, nil
}

// HasFilter reports whether a filter called name is attached to stage.
func (p *Pipeline) HasFilter(stage pkg.Stage, name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.ContainsFunc(p.filters[stage], func(f filter) bool {
		return f.name == name
	})
}

// EnqueueScript registers an external script rendered at stage.
func (p *Pipeline) EnqueueScript(stage pkg.Stage, handle, src string, attrs pkg.Attributes) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if handle == "" {
		return ErrMissingName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.ContainsFunc(p.scripts, func(s script) bool { return s.handle == handle }) {
		return fmt.Errorf("%w: %q", ErrDuplicateScript, handle)
	}

	p.scripts = append(p.scripts, script{stage: stage, handle: handle, src: src, attrs: attrs.Clone()})
	return nil
}

// HasScript reports whether a script is enqueued under handle.
func (p *Pipeline) HasScript(handle string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.ContainsFunc(p.scripts, func(s script) bool {
		return s.handle == handle
	})
}

// AddScriptFilter intercepts every enqueued script before its tag is rendered.
func (p *Pipeline) AddScriptFilter(fn pkg.ScriptFilter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scriptFilters = append(p.scriptFilters, fn)
}

// Render produces the output of one stage: callbacks, then enqueued scripts,
// then the stage's output filters. Failing callbacks are logged and skipped;
// rendering itself only fails for an unknown stage.
func (p *Pipeline) Render(ctx context.Context, stage pkg.Stage) (string, error) {
	if !stage.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	ctx, span := p.tracer.Start(ctx, "lifecycle.render",
		trace.WithAttributes(attribute.String("stage", string(stage))),
	)
	defer span.End()

	p.mu.RLock()
	actions := slices.Clone(p.actions[stage])
	filters := slices.Clone(p.filters[stage])
	scriptFilters := slices.Clone(p.scriptFilters)
	var scripts []script
	for _, s := range p.scripts {
		if s.stage == stage {
			scripts = append(scripts, s)
		}
	}
	p.mu.RUnlock()

	var buf bytes.Buffer

	for _, a := range actions {
		var out bytes.Buffer
		if err := p.runAction(ctx, a, &out); err != nil {
			span.RecordError(err)
			p.logger.Error(
				"callback failed, output dropped",
				"stage", stage,
				"callback", a.name,
				"error", err,
			)
			continue
		}
		buf.Write(out.Bytes())
	}

	for _, s := range scripts {
		buf.WriteString(p.scriptTag(s, scriptFilters))
	}

	out := buf.String()
	for _, f := range filters {
		out = p.runFilter(ctx, stage, f, out)
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

// RenderStages renders several stages and concatenates their output.
func (p *Pipeline) RenderStages(ctx context.Context, stages ...pkg.Stage) (string, error) {
	var sb strings.Builder
	for _, st := range stages {
		out, err := p.Render(ctx, st)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

func (p *Pipeline) runAction(ctx context.Context, a action, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return a.fn(ctx, w)
}

func (p *Pipeline) runFilter(ctx context.Context, stage pkg.Stage, f filter, in string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("filter panicked, output left unfiltered", "stage", stage, "filter", f.name, "panic", r)
			out = in
		}
	}()
	return f.fn(ctx, stage, in)
}

func (p *Pipeline) scriptTag(s script, filters []pkg.ScriptFilter) string {
	attrs := s.attrs.Clone()
	if _, ok := attrs.Get("id"); !ok {
		attrs = append(pkg.Attributes{{Key: "id", Val: s.handle + "-js"}}, attrs...)
	}
	for _, f := range filters {
		attrs = f(s.handle, s.src, attrs)
	}
	return `<script src="` + html.EscapeString(s.src) + `"` + attrs.String() + "></script>\n"
}
