// Package grpcfront implements the gRPC front end: the same detection
// and metadata operations httpfront exposes over REST, routed through
// the same Dispatcher, served with the hand-rolled JSON codec in
// internal/pb until a real protoc toolchain generates proper bindings.
package grpcfront

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/dispatch"
	"github.com/canhld94/HeteroServing/internal/pb"
)

func init() {
	encoding.RegisterCodec(pb.Codec)
}

// Server implements pb.InferenceRPCServer against a Dispatcher and
// hosts it on a grpc.Server.
type Server struct {
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
	grpc       *grpc.Server
	listenAddr string
}

// New builds a Server bound to addr, forcing every call to use the JSON
// codec registered in internal/pb regardless of what subtype the client
// requests.
func New(addr string, d *dispatch.Dispatcher, log *slog.Logger) *Server {
	s := &Server{dispatcher: d, log: log, listenAddr: addr}
	s.grpc = grpc.NewServer(
		grpc.ForceServerCodec(pb.Codec),
		grpc.UnaryInterceptor(loggingInterceptor(log)),
	)
	s.grpc.RegisterService(&pb.ServiceDesc, s)
	return s
}

// ListenAndServe binds addr and blocks serving RPCs until the listener
// fails or Stop is called.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return apperr.NewConfigError("grpc listen on %q: %v", s.listenAddr, err)
	}
	if s.log != nil {
		s.log.Info("grpc front end listening", "addr", s.listenAddr)
	}
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server, waiting for in-flight RPCs.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// Shutdown implements the same lifecycle hook as httpfront.Server so the
// composition root can treat either front end uniformly; the ctx
// deadline is not honored because grpc's GracefulStop has no context
// form.
func (s *Server) Shutdown(ctx context.Context) error {
	s.grpc.GracefulStop()
	return nil
}

// RunDetection implements pb.InferenceRPCServer. The request always
// routes to the default device, same as the HTTP front end's bare
// POST /inference path.
func (s *Server) RunDetection(ctx context.Context, req *pb.EncodedImage) (*pb.DetectionOutput, error) {
	pred, err := s.dispatcher.Dispatch("", req.Data)
	if err != nil {
		var nie *apperr.NotImplementedError
		if errors.As(err, &nie) {
			return nil, status.Error(codes.Internal, err.Error())
		}
		// DecodeError/InferenceError degrade to an empty detection list
		// plus OK, matching the HTTP front end.
		return &pb.DetectionOutput{Bboxes: []pb.BBox{}}, nil
	}
	out := &pb.DetectionOutput{Bboxes: make([]pb.BBox, 0, len(pred))}
	for _, b := range pred {
		bb := pb.BBox{
			LabelID: int32(b.LabelID),
			Label:   b.Label,
			Prob:    b.Score,
		}
		if b.Xmin != 0 || b.Ymin != 0 || b.Xmax != 0 || b.Ymax != 0 {
			bb.Box = &pb.Rect{
				Xmin: int32(b.Xmin),
				Ymin: int32(b.Ymin),
				Xmax: int32(b.Xmax),
				Ymax: int32(b.Ymax),
			}
		}
		out.Bboxes = append(out.Bboxes, bb)
	}
	return out, nil
}

// Metadata implements pb.InferenceRPCServer.
func (s *Server) Metadata(ctx context.Context, req *pb.MetadataRequest) (*pb.MetadataResponse, error) {
	var engines []pb.EngineInfo
	for _, e := range s.dispatcher.Metadata() {
		engines = append(engines, pb.EngineInfo{Device: string(e.Device), Model: string(e.Model), Labels: int32(e.Labels)})
	}
	return &pb.MetadataResponse{Engines: engines}, nil
}
