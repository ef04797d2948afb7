package plugin

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	pb "github.com/mozilla-ai/mcpd-plugins-sdk-go/pkg/plugins/v1/plugins"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/peteski22/consent-gate/internal/lifecycle"
)

// Name identifies the plugin to the gateway.
const Name = "consent-gate"

// Server is an mcpd plugin that rewrites HTML responses so tracking scripts
// wait for visitor consent. Requests pass through untouched.
// NOTE: Use NewServer to create a Server.
type Server struct {
	pb.UnimplementedPluginServer

	logger   hclog.Logger
	pipeline *lifecycle.Pipeline
	version  string
	commit   string

	mu      sync.RWMutex
	stopped bool
	custom  map[string]string
}

// NewServer constructs a Server rewriting responses through p.
func NewServer(logger hclog.Logger, p *lifecycle.Pipeline, version, commit string) *Server {
	return &Server{
		logger:   logger.Named("plugin"),
		pipeline: p,
		version:  version,
		commit:   commit,
		custom:   map[string]string{},
	}
}

func (s *Server) GetMetadata(_ context.Context, _ *emptypb.Empty) (*pb.Metadata, error) {
	return &pb.Metadata{
		Name:        Name,
		Version:     s.version,
		Description: "Holds tracking scripts in HTML responses until visitor consent",
		CommitHash:  s.commit,
	}, nil
}

func (s *Server) GetCapabilities(_ context.Context, _ *emptypb.Empty) (*pb.Capabilities, error) {
	return &pb.Capabilities{
		Flows: []pb.Flow{pb.Flow_FLOW_RESPONSE},
	}, nil
}

func (s *Server) CheckHealth(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (s *Server) CheckReady(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return nil, status.Error(codes.Unavailable, ErrStopped.Error())
	}
	return &emptypb.Empty{}, nil
}

// Configure records gateway supplied settings. Only logging uses them.
func (s *Server) Configure(_ context.Context, cfg *pb.PluginConfig) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range cfg.GetCustomConfig() {
		s.custom[k] = v
	}

	s.logger.Info("configured",
		"service", cfg.GetTelemetry().GetServiceName(),
		"environment", cfg.GetTelemetry().GetEnvironment(),
		"custom_keys", len(cfg.GetCustomConfig()),
	)
	return &emptypb.Empty{}, nil
}

func (s *Server) Stop(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.logger.Info("stop requested")
	return &emptypb.Empty{}, nil
}

// HandleRequest passes every request through.
func (s *Server) HandleRequest(_ context.Context, _ *pb.HTTPRequest) (*pb.HTTPResponse, error) {
	return &pb.HTTPResponse{Continue: true}, nil
}

// HandleResponse rewrites uncompressed HTML bodies; anything else is returned unchanged.
func (s *Server) HandleResponse(ctx context.Context, resp *pb.HTTPResponse) (*pb.HTTPResponse, error) {
	if len(resp.GetBody()) == 0 {
		return resp, nil
	}

	ct, _ := header(resp.GetHeaders(), "Content-Type")
	enc, _ := header(resp.GetHeaders(), "Content-Encoding")
	if !lifecycle.Rewritable(ct, enc, resp.GetBody()) {
		s.logger.Trace("response passed through", "content_type", ct, "encoding", enc)
		return resp, nil
	}

	out, ok := proto.Clone(resp).(*pb.HTTPResponse)
	if !ok {
		return resp, nil
	}

	body := s.pipeline.Transform(ctx, string(resp.GetBody()))
	out.Body = []byte(body)
	out.Continue = true

	if key, ok := headerKey(out.GetHeaders(), "Content-Length"); ok {
		out.Headers[key] = strconv.Itoa(len(out.Body))
	}

	s.logger.Trace("response rewritten", "before", len(resp.GetBody()), "after", len(out.Body))
	return out, nil
}

// header looks up name case-insensitively in a first-value header map.
func header(h map[string]string, name string) (string, bool) {
	key, ok := headerKey(h, name)
	if !ok {
		return "", false
	}
	return h[key], true
}

func headerKey(h map[string]string, name string) (string, bool) {
	for k := range h {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
