package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/peteski22/consent-gate/internal/config"
	"github.com/peteski22/consent-gate/internal/gate"
	"github.com/peteski22/consent-gate/internal/integrations"
	"github.com/peteski22/consent-gate/internal/lifecycle"
)

const appName = "consent-gate"

var (
	version = "dev"
	commit  = "none"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Hold tracking scripts in HTML until visitors consent",
	Long:          "consent-gate injects the Cookiebot consent banner into HTML pages and rewrites third-party tracking scripts so they only run once the visitor grants the matching consent category.",
	Version:       version + " (" + commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: "+config.DefaultPath+")")

	rootCmd.AddCommand(serveCmd, pluginCmd, rulesCmd, resolveCmd, renderCmd, initCmd)
}

// app holds what the commands share: configuration, the root logger and a
// pipeline with the consent gate installed.
type app struct {
	cfg         *config.Config
	logger      hclog.Logger
	gate        *gate.Gate
	pipeline    *lifecycle.Pipeline
	activations []integrations.Activation
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := hclog.New(cfg.Log.LoggerOptions(appName))
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}

	p := lifecycle.NewPipeline(logger, lifecycle.WithTracer(otel.Tracer(appName)))
	g := gate.New(cfg, logger, gate.WithMeter(otel.Meter(appName)))

	acts, err := g.Install(p, cfg.Host.Probe())
	if err != nil {
		return nil, fmt.Errorf("installing consent gate: %w", err)
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		gate:        g,
		pipeline:    p,
		activations: acts,
	}, nil
}
