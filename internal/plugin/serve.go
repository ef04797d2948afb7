package plugin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	pb "github.com/mozilla-ai/mcpd-plugins-sdk-go/pkg/plugins/v1/plugins"
	"google.golang.org/grpc"
)

// Listen opens a listener for the plugin. Stale unix sockets are removed first.
func Listen(network, address string) (net.Listener, error) {
	if address == "" {
		return nil, ErrMissingAddress
	}

	switch network {
	case "unix":
		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing stale socket: %w", err)
		}
	case "tcp":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, network)
	}

	lis, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return lis, nil
}

// Serve registers srv on a new gRPC server and serves lis until ctx is done,
// then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer()
	pb.RegisterPluginServer(grpcServer, s)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			grpcServer.GracefulStop()
		case <-done:
			grpcServer.Stop()
		}
	}()

	s.logger.Info("listening", "address", lis.Addr().String(), "network", lis.Addr().Network())
	err := grpcServer.Serve(lis)

	close(done)
	<-exited

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
