// Package server exposes a started core over gRPC and hot-reloads the
// mapping profile file.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/garment"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/profile"
	"github.com/ppiankov/threadshift/internal/ratelimit"
	"github.com/ppiankov/threadshift/internal/reciprocal"
	"github.com/ppiankov/threadshift/internal/swap"
)

// Config holds gRPC server configuration.
type Config struct {
	Port        int
	ProfilePath string // mapping profile file re-applied on change
	RateLimits  ratelimit.Config
}

// Server implements ThreadshiftServer on top of a started core.
type Server struct {
	core       *core.Core
	cfg        Config
	log        *zap.Logger
	grpcServer *grpc.Server
}

// ValidateRequest is the Validate payload.
type ValidateRequest struct {
	Body    model.BodyMap `json:"body"`
	Partial bool          `json:"partial,omitempty"`
}

// SwapRequest is the Swap payload.
type SwapRequest struct {
	Source  *model.Character `json:"source"`
	Target  *model.Character `json:"target"`
	Garment string           `json:"garment"`
}

// SwapResponse carries the updated characters and the new record.
type SwapResponse struct {
	SwapID string           `json:"swap_id"`
	Source *model.Character `json:"source"`
	Target *model.Character `json:"target"`
	Record model.SwapRecord `json:"record"`
}

// ReverseRequest is the Reverse payload.
type ReverseRequest struct {
	SwapID string `json:"swap_id"`
}

// ReverseResponse carries the restored characters.
type ReverseResponse struct {
	SwapID string           `json:"swap_id"`
	Status model.SwapStatus `json:"status"`
	Source *model.Character `json:"source,omitempty"`
	Target *model.Character `json:"target,omitempty"`
}

// New creates a gRPC server over c. c must be started.
func New(c *core.Core, cfg Config, log *zap.Logger) (*Server, error) {
	if c == nil || c.Engine() == nil {
		return nil, fmt.Errorf("server: %w", core.ErrNotStarted)
	}
	if log == nil {
		log = zap.NewNop()
	}

	var opts []grpc.ServerOption
	if cfg.RateLimits.HasLimits() {
		opts = append(opts, grpc.UnaryInterceptor(rateLimitInterceptor(ratelimit.New(cfg.RateLimits, nil), log)))
	}

	s := &Server{
		core:       c,
		cfg:        cfg,
		log:        log,
		grpcServer: grpc.NewServer(opts...),
	}
	RegisterThreadshiftServer(s.grpcServer, s)
	return s, nil
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.grpcServer.Serve(lis)
}

// ServeOn starts the gRPC server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// Validate implements the Validate RPC.
func (s *Server) Validate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ValidateRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var res bodymap.Result
	switch {
	case req.Body == nil:
		res = bodymap.Validate(nil)
	case req.Partial:
		res = bodymap.ValidatePartial(req.Body)
	default:
		res = bodymap.Validate(req.Body)
	}
	return respond(res)
}

// Swap implements the Swap RPC. The characters in the request are the
// working copies the engine mutates and later restores on Reverse.
func (s *Server) Swap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SwapRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	eng := s.core.Engine()
	id, err := eng.PerformSwap(ctx, req.Source, req.Target, req.Garment)
	if err != nil {
		return nil, toStatus(err)
	}
	rec, _ := eng.Swap(id)
	return respond(SwapResponse{
		SwapID: id,
		Source: req.Source,
		Target: req.Target,
		Record: rec,
	})
}

// Reverse implements the Reverse RPC.
func (s *Server) Reverse(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ReverseRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	eng := s.core.Engine()
	src, tgt, _ := eng.Participants(req.SwapID)
	if err := eng.ReverseSwap(req.SwapID); err != nil {
		return nil, toStatus(err)
	}
	return respond(ReverseResponse{
		SwapID: req.SwapID,
		Status: model.SwapReversed,
		Source: src,
		Target: tgt,
	})
}

// Preview implements the Preview RPC.
func (s *Server) Preview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req reciprocal.Pair
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p, err := s.core.Orchestrator().Preview(req.A, req.B, req.Garments)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(p)
}

// Reciprocal implements the Reciprocal RPC.
func (s *Server) Reciprocal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req reciprocal.Pair
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.core.Orchestrator().Swap(req.A, req.B, req.Garments)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(res)
}

// Status implements the Status RPC.
func (s *Server) Status(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return respond(s.core.Status(ctx))
}

// ReloadProfile re-reads the profile file and applies it to the core.
// Called by the hot-reloader on file change.
func (s *Server) ReloadProfile() error {
	if s.cfg.ProfilePath == "" {
		return nil
	}
	p, err := profile.LoadFile(s.cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("failed to reload profile %q: %w", s.cfg.ProfilePath, err)
	}
	return s.core.ApplyProfile(p)
}

// rateLimitInterceptor rejects calls over their method's limit with
// ResourceExhausted.
func rateLimitInterceptor(l *ratelimit.Limiter, log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		method := path.Base(info.FullMethod)
		if r := l.Allow(method); r.Exceeded {
			log.Warn("rate limited", zap.String("method", method), zap.Int("limit", r.Limit))
			return nil, status.Error(codes.ResourceExhausted, r.Reason)
		}
		return handler(ctx, req)
	}
}

func respond(v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, swap.ErrSwapNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, swap.ErrNotInitialized), errors.Is(err, core.ErrNotStarted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, swap.ErrValidationFailed),
		errors.Is(err, swap.ErrNoZones),
		errors.Is(err, swap.ErrInvalidCharacter),
		errors.Is(err, garment.ErrMalformedRef),
		errors.Is(err, reciprocal.ErrInvalidInput),
		errors.Is(err, reciprocal.ErrInvalidBodyMap):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
