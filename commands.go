package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/peteski22/consent-gate/internal/config"
	"github.com/peteski22/consent-gate/internal/consent"
	"github.com/peteski22/consent-gate/internal/integrations"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

var errUnknownFormat = errors.New("unknown output format")

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show activated integrations and their block rules",
	RunE:  runRules,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <code>",
	Short: "Resolve a consent API signature code to category flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a preview page through the configured gate",
	RunE:  runRender,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE:  runInit,
}

func init() {
	rulesCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")

	resolveCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")
	resolveCmd.Flags().Bool("deny-all", false, "print all-denied flags instead of failing on unknown codes")
	resolveCmd.Flags().Bool("raw", false, "decode the code itself, ignoring the mapping table")

	renderCmd.Flags().String("title", "consent-gate preview", "page title")
	renderCmd.Flags().String("body", "", "file containing the page body (default: empty body)")

	initCmd.Flags().StringP("output", "o", config.DefaultPath, "path of the config file to create")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

type ruleView struct {
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Stage      string   `json:"stage,omitempty" yaml:"stage,omitempty"`
	Categories []string `json:"categories" yaml:"categories"`
	ScriptTag  bool     `json:"script_tag,omitempty" yaml:"script_tag,omitempty"`
	Source     string   `json:"source" yaml:"source"`
}

type activationView struct {
	Integration string `json:"integration" yaml:"integration"`
	Capability  string `json:"capability" yaml:"capability"`
	Stage       string `json:"stage,omitempty" yaml:"stage,omitempty"`
	Rules       int    `json:"rules" yaml:"rules"`
}

type rulesView struct {
	Activations []activationView `json:"activations" yaml:"activations"`
	Rules       []ruleView       `json:"rules" yaml:"rules"`
	Pending     []string         `json:"pending,omitempty" yaml:"pending,omitempty"`
}

func runRules(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")

	a, err := newApp()
	if err != nil {
		return err
	}

	view := rulesView{
		Activations: make([]activationView, 0, len(a.activations)),
		Rules:       make([]ruleView, 0, a.gate.Rules().Len()),
	}
	for _, act := range a.activations {
		view.Activations = append(view.Activations, activationView{
			Integration: act.Integration,
			Capability:  string(act.Capability),
			Stage:       string(act.Stage),
			Rules:       act.Attached,
		})
	}
	for _, r := range a.gate.Rules().All() {
		view.Rules = append(view.Rules, ruleView{
			Pattern:    r.Pattern,
			Stage:      string(r.Stage),
			Categories: categoryNames(r.Categories),
			ScriptTag:  r.ScriptTag,
			Source:     r.Source,
		})
	}
	reg := a.gate.Registrar()
	for _, in := range reg.Catalog() {
		if reg.Enabled(in) && reg.State(in.Option) == integrations.StatePending {
			view.Pending = append(view.Pending, in.Option)
		}
	}

	return encode(cmd.OutOrStdout(), format, view)
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	denyAll, _ := cmd.Flags().GetBool("deny-all")
	raw, _ := cmd.Flags().GetBool("raw")

	var (
		flags consent.Flags
		err   error
	)
	if raw {
		flags, err = consent.ParseSignature(args[0])
	} else {
		cfg, lerr := config.Load(cfgFile)
		if lerr != nil {
			return lerr
		}
		r := consent.NewResolver(cfg.Consent.Override())
		if denyAll {
			flags = r.ResolveOrDenyAll(args[0])
		} else {
			flags, err = r.Resolve(args[0])
		}
	}
	if err != nil {
		return err
	}

	return encode(cmd.OutOrStdout(), format, flags)
}

func runRender(cmd *cobra.Command, _ []string) error {
	title, _ := cmd.Flags().GetString("title")
	bodyFile, _ := cmd.Flags().GetString("body")

	var body string
	if bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		body = string(data)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	return a.pipeline.RenderDocument(cmd.Context(), cmd.OutOrStdout(), title, body)
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if err := config.WriteTemplate(path, force); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
	return nil
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}

func categoryNames(cats []pkg.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}
