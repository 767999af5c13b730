package grpc

import (
	"context"
	"path"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"github.com/dmitrijs2005/vanish/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func userIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", common.ErrorUnauthorized
	}
	return id, nil
}

// accessTokenInterceptor resolves the caller from the access_token metadata.
// Every method except the public ones requires it.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if rpc.PublicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, rpc.ToStatus(common.ErrorUnauthorized)
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		s.logger.Warn(ctx, "rejected access token", "method", info.FullMethod, "error", err)
		return nil, rpc.ToStatus(err)
	}

	ctx = context.WithValue(ctx, userIDKey, userID)
	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := path.Base(info.FullMethod)
	metrics.GRPCRequestsTotal.WithLabelValues(method, status.Code(err).String()).Inc()
	metrics.GRPCRequestDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return resp, err
}
