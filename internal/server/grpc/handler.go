package grpc

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	pb "github.com/dmitrijs2005/medkeeper/internal/proto"
	"github.com/dmitrijs2005/medkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	creds, verifier, err := decodeCredentials(req)
	if err != nil {
		return nil, err
	}

	pair, err := s.users.Register(ctx, creds.UserName, creds.AuthSalt, verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", pair.UserID)
	return s.sessionResponse(pair)
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {

	salt, err := s.users.GetSalt(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return wrapperspb.String(salt), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	creds, verifier, err := decodeCredentials(req)
	if err != nil {
		return nil, err
	}

	pair, err := s.users.Login(ctx, creds.UserName, verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Logged in", "user_id", pair.UserID)
	return s.sessionResponse(pair)
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	pair, err := s.users.RefreshToken(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.sessionResponse(pair)
}

func decodeCredentials(req *structpb.Struct) (pb.Credentials, []byte, error) {
	creds, err := pb.CredentialsFromStruct(req)
	if err != nil {
		return pb.Credentials{}, nil, status.Error(codes.InvalidArgument, "malformed credentials")
	}
	verifier, err := hex.DecodeString(creds.Verifier)
	if err != nil {
		return pb.Credentials{}, nil, status.Error(codes.InvalidArgument, "malformed verifier")
	}
	return creds, verifier, nil
}

func (s *GRPCServer) sessionResponse(pair *services.TokenPair) (*structpb.Struct, error) {
	resp, err := pb.SessionToStruct(pb.Session{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return resp, nil
}

func (s *GRPCServer) ReadProfile(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp, err := pb.ProfileToStruct(pb.ProfileMessage{
		UserID:                 p.ID,
		EncryptionSalt:         p.EncryptionSalt,
		EncryptedUserMasterKey: p.EncryptedUserMasterKey,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return resp, nil
}

func (s *GRPCServer) WriteEncryptedMasterKey(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	if err := s.profiles.SetEncryptedMasterKey(ctx, userID, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "encrypted master key stored", "user_id", userID)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {

	return wrapperspb.String(pb.PingOK), nil

}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "profile not found")
	case errors.Is(err, common.ErrMasterKeyAlreadySet):
		return status.Error(codes.FailedPrecondition, "encrypted master key already set")
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, "invalid argument")
	case errors.Is(err, common.ErrUserExists):
		return status.Error(codes.AlreadyExists, "username is taken")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "refresh token expired")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
