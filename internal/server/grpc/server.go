// Package grpc exposes the media, view and report services over gRPC. The
// service descriptor is registered by hand and messages travel in the JSON
// codec from internal/rpc.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"github.com/dmitrijs2005/vanish/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	media     *services.MediaService
	views     *services.ViewService
	reports   *services.ReportService
	logger    logging.Logger
	jwtSecret []byte
	now       func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, ms *services.MediaService, vs *services.ViewService,
	rs *services.ReportService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		media:     ms,
		views:     vs,
		reports:   rs,
		jwtSecret: []byte(secretKey),
		now:       time.Now,
	}
}

// newServer builds the grpc.Server with interceptors and the service
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor),
	)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String(), "codec", rpc.CodecName)

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
