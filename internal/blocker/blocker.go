package blocker

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	mnop "go.opentelemetry.io/otel/metric/noop"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// Blocker applies block rules to buffered stage output, logging and counting
// what it rewrote.
// NOTE: Use New to create a Blocker.
type Blocker struct {
	logger  hclog.Logger
	blocked metric.Int64Counter
	skipped metric.Int64Counter
}

// Option configures a Blocker.
type Option func(*Blocker) error

// WithMeter records rewrite counters on meter instead of a noop meter.
func WithMeter(meter metric.Meter) Option {
	return func(b *Blocker) error {
		blocked, err := meter.Int64Counter(
			"consent_gate.scripts.blocked",
			metric.WithDescription("Script tags rewritten to wait for consent."),
			metric.WithUnit("{script}"),
		)
		if err != nil {
			return err
		}
		skipped, err := meter.Int64Counter(
			"consent_gate.matches.skipped",
			metric.WithDescription("Pattern matches left untouched."),
			metric.WithUnit("{match}"),
		)
		if err != nil {
			return err
		}
		b.blocked, b.skipped = blocked, skipped
		return nil
	}
}

// New constructs a Blocker. Options that fail leave the noop counters in
// place and are logged; they never prevent blocking.
func New(logger hclog.Logger, opts ...Option) *Blocker {
	meter := mnop.NewMeterProvider().Meter("")
	blocked, _ := meter.Int64Counter("consent_gate.scripts.blocked")
	skipped, _ := meter.Int64Counter("consent_gate.matches.skipped")

	b := &Blocker{
		logger:  logger.Named("blocker"),
		blocked: blocked,
		skipped: skipped,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.logger.Warn("blocker option failed", "error", err)
		}
	}

	return b
}

// Apply rewrites buf with rules. It never fails: a panic during rewriting is
// logged and the original buffer is returned.
func (b *Blocker) Apply(ctx context.Context, stage pkg.Stage, buf string, rules []pkg.BlockRule) (out string) {
	if len(rules) == 0 || buf == "" {
		return buf
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("rewrite failed, leaving output untouched", "stage", stage, "panic", r)
			out = buf
		}
	}()

	out, stats := Rewrite(buf, rules)

	attrs := metric.WithAttributes(attribute.String("stage", string(stage)))
	if n := stats.Rewritten(); n > 0 {
		b.blocked.Add(ctx, int64(n), attrs)
	}
	if stats.Skipped > 0 {
		b.skipped.Add(ctx, int64(stats.Skipped), attrs)
	}

	if stats.Matches > 0 {
		b.logger.Debug("applied block rules",
			"stage", stage,
			"rules", len(rules),
			"matches", stats.Matches,
			"blocked", stats.Blocked,
			"merged", stats.Merged,
			"skipped", stats.Skipped,
		)
		for reason, count := range stats.SkipReasons {
			b.logger.Trace("skipped matches", "stage", stage, "reason", reason, "count", count)
		}
	}

	return out
}

// Filter returns an output filter applying the rules src holds for the
// filtered stage at call time.
func (b *Blocker) Filter(src RuleSource) pkg.OutputFilter {
	return func(ctx context.Context, stage pkg.Stage, buf string) string {
		return b.Apply(ctx, stage, buf, src.ForStage(stage))
	}
}

// RuleSource supplies the rules currently attached to the render lifecycle.
type RuleSource interface {
	// ForStage returns output rules attached to stage, in registration order.
	ForStage(stage pkg.Stage) []pkg.BlockRule

	// ScriptRules returns script registration rules, in registration order.
	ScriptRules() []pkg.BlockRule
}
