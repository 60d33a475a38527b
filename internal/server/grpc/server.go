// Package grpc exposes ProfileService over gRPC. Register, GetSalt, Login,
// RefreshToken and Ping are public; the profile methods need an access
// token.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/medkeeper/internal/logging"
	pb "github.com/dmitrijs2005/medkeeper/internal/proto"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/services"
	"google.golang.org/grpc"
)

// userSvc is the part of services.UserService the handlers call.
type userSvc interface {
	Register(ctx context.Context, userName, authSalt string, verifier []byte) (*services.TokenPair, error)
	GetSalt(ctx context.Context, userName string) (string, error)
	Login(ctx context.Context, userName string, verifier []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// profileSvc is the part of services.ProfileService the handlers call.
type profileSvc interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetEncryptedMasterKey(ctx context.Context, userID string, blob string) error
}

type GRPCServer struct {
	pb.UnimplementedProfileServiceServer
	address   string
	users     userSvc
	profiles  profileSvc
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us userSvc, ps profileSvc, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		profiles:  ps,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	// registers service
	pb.RegisterProfileServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
