package grpcfront

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs one line per RPC with a correlation ID,
// method, status code, and latency, matching the HTTP front end's
// request logger. A nil log disables it.
func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if log == nil {
			return handler(ctx, req)
		}
		id := uuid.NewString()
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc request",
			"request_id", id,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
