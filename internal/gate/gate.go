package gate

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/metric"

	"github.com/peteski22/consent-gate/internal/blocker"
	"github.com/peteski22/consent-gate/internal/config"
	"github.com/peteski22/consent-gate/internal/consent"
	"github.com/peteski22/consent-gate/internal/integrations"
	"github.com/peteski22/consent-gate/internal/lifecycle"
	"github.com/peteski22/consent-gate/internal/tags"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

const (
	// FilterName is the name the blocker filter is attached under on every stage.
	FilterName = "consent-gate-blocker"

	// FilterPriority runs the blocker after filters at the default priority.
	FilterPriority = 10

	ActionGCM        = "cookiebot_gcm"
	ActionGTM        = "cookiebot_gtm"
	ActionUC         = "cookiebot_uc"
	ActionConsentAPI = "cookiebot_consent_api_mapping"
)

// Gate owns everything needed to hold tracking scripts back until consent:
// the signature resolver, the integration registrar with its rule set, the
// output blocker and the consent head tags.
// NOTE: Use New to create a Gate.
type Gate struct {
	logger     hclog.Logger
	tags       tags.Options
	consentAPI bool
	resolver   *consent.Resolver
	rules      *integrations.RuleSet
	registrar  *integrations.Registrar
	blocker    *blocker.Blocker
	scripts    *blocker.ScriptFilter
}

type options struct {
	meter   metric.Meter
	catalog []integrations.Integration
}

// Option configures a Gate.
type Option func(*options)

// WithMeter records blocker counters on meter.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithCatalog replaces the built-in integration catalog.
func WithCatalog(catalog []integrations.Integration) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// New constructs a Gate from configuration.
func New(cfg *config.Config, logger hclog.Logger, opts ...Option) *Gate {
	o := options{catalog: integrations.Catalog()}
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.Named("gate")

	var blockerOpts []blocker.Option
	if o.meter != nil {
		blockerOpts = append(blockerOpts, blocker.WithMeter(o.meter))
	}

	rules := integrations.NewRuleSet()

	g := &Gate{
		logger:     logger,
		tags:       cfg.Consent.TagOptions(),
		consentAPI: cfg.Consent.ConsentAPI,
		resolver:   consent.NewResolver(cfg.Consent.Override()),
		rules:      rules,
		registrar:  integrations.NewRegistrar(logger, rules, o.catalog, cfg.IntegrationSettings()),
		blocker:    blocker.New(logger, blockerOpts...),
		scripts:    blocker.NewScriptFilter(logger, rules, cfg.Consent.IgnoreScripts),
	}

	if g.tags.CBID == "" {
		logger.Warn("no Cookiebot ID configured, consent banner will not be emitted")
	}

	return g
}

// Resolver returns the consent signature resolver.
func (g *Gate) Resolver() *consent.Resolver {
	return g.resolver
}

// Rules returns the attached block rules.
func (g *Gate) Rules() *integrations.RuleSet {
	return g.rules
}

// Registrar returns the integration registrar.
func (g *Gate) Registrar() *integrations.Registrar {
	return g.registrar
}

// TagOptions returns the options used for the consent head tags.
func (g *Gate) TagOptions() tags.Options {
	return g.tags
}

// Install wires the gate into p: consent head tags, integration rules
// detected through probe (p itself when probe is nil), the blocker filter on
// every stage and the script filter. Installing into the same pipeline again
// only activates integrations that have appeared since.
func (g *Gate) Install(p *lifecycle.Pipeline, probe pkg.Probe) ([]integrations.Activation, error) {
	if probe == nil {
		probe = p
	}

	if p.HasFilter(pkg.StageEarlyHead, FilterName) {
		return g.registrar.Activate(probe), nil
	}

	if err := g.addHeadTags(p); err != nil {
		return nil, err
	}

	activations := g.registrar.Activate(probe)

	for _, stage := range pkg.OrderedStages {
		if _, err := p.AddFilter(stage, FilterName, FilterPriority, g.blocker.Filter(g.rules)); err != nil {
			return nil, fmt.Errorf("attaching blocker to %s: %w", stage, err)
		}
	}
	p.AddScriptFilter(g.scripts.Filter)

	g.logger.Info("installed",
		"integrations", len(activations),
		"rules", g.rules.Len(),
		"blocking_mode", g.tags.BlockingMode,
	)

	return activations, nil
}

func (g *Gate) addHeadTags(p *lifecycle.Pipeline) error {
	head := []struct {
		name     string
		priority int
		out      string
	}{
		{ActionGCM, -9999, tags.GCM(g.tags)},
		{ActionGTM, -9998, tags.GTM(g.tags)},
		{ActionUC, -9997, tags.UCScript(g.tags)},
	}

	for _, h := range head {
		if h.out == "" {
			continue
		}
		if err := p.AddAction(pkg.StageEarlyHead, h.name, h.priority, emit(h.out)); err != nil {
			return fmt.Errorf("adding %s: %w", h.name, err)
		}
	}

	if !g.consentAPI {
		return nil
	}

	mapping, err := tags.ConsentAPIMapping(g.resolver.Mapping())
	if err != nil {
		return err
	}
	if err := p.AddAction(pkg.StageLateHead, ActionConsentAPI, 0, emit(mapping)); err != nil {
		return fmt.Errorf("adding %s: %w", ActionConsentAPI, err)
	}
	return nil
}

// Placeholder renders the placeholder shown in place of an integration's
// blocked content.
func (g *Gate) Placeholder(option string) (string, error) {
	in, err := g.registrar.Lookup(option)
	if err != nil {
		return "", err
	}
	return tags.Placeholder(g.registrar.Placeholder(in), g.registrar.Categories(in)), nil
}

// Declaration renders the cookie declaration tag for lang.
func (g *Gate) Declaration(lang string) string {
	return tags.Declaration(g.tags, lang)
}

func emit(s string) lifecycle.ActionFunc {
	return func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}
