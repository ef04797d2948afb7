package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peteski22/consent-gate/internal/plugin"
	"github.com/peteski22/consent-gate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rewriting reverse proxy",
	Long:  "Proxy an upstream HTML application, injecting consent tags and blocking tracking scripts in every HTML response.",
	RunE:  runServe,
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Run as an mcpd gRPC plugin",
	Long:  "Serve the mcpd plugin contract, rewriting HTML bodies in the response flow.",
	RunE:  runPlugin,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().String("upstream", "", "upstream URL (overrides server.upstream)")

	pluginCmd.Flags().String("address", "", "address to listen on, e.g. /tmp/plugin.sock or localhost:50051 (overrides plugin.address)")
	pluginCmd.Flags().String("network", "", "network type: unix or tcp (overrides plugin.network)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v, _ := cmd.Flags().GetString("upstream"); v != "" {
		cfg.Server.Upstream = v
	}

	var upstream *url.URL
	if cfg.Server.Upstream != "" {
		upstream, err = url.Parse(cfg.Server.Upstream)
		if err != nil {
			return fmt.Errorf("parsing upstream: %w", err)
		}
	} else {
		logger.Warn("no upstream configured, proxied requests will fail")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(logger, a.gate, a.pipeline, upstream),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr, "upstream", cfg.Server.Upstream)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runPlugin(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	if v, _ := cmd.Flags().GetString("address"); v != "" {
		cfg.Plugin.Address = v
	}
	if v, _ := cmd.Flags().GetString("network"); v != "" {
		cfg.Plugin.Network = v
	}

	lis, err := plugin.Listen(cfg.Plugin.Network, cfg.Plugin.Address)
	if err != nil {
		return err
	}
	if cfg.Plugin.Network == "unix" {
		defer func() { _ = os.Remove(cfg.Plugin.Address) }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return plugin.NewServer(a.logger, a.pipeline, version, commit).Serve(ctx, lis)
}
