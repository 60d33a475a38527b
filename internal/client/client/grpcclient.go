package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	pb "github.com/dmitrijs2005/medkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// readTimeout bounds profile reads so an unreachable server falls back to
// the local cache quickly.
const readTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.ProfileServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withAccessToken(ctx, s.token())
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewProfileClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient dials the endpoint. Extra options are appended after the
// defaults (insecure transport, token interceptor), which lets tests swap
// the dialer.
func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewProfileServiceClient(conn)
	return nil
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Register(ctx context.Context, userName, authSalt, verifier string) (*Session, error) {
	req, err := pb.CredentialsToStruct(pb.Credentials{UserName: userName, AuthSalt: authSalt, Verifier: verifier})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return s.installSession(resp)
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) (string, error) {
	resp, err := s.client.GetSalt(ctx, wrapperspb.String(userName))
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Login(ctx context.Context, userName, verifier string) (*Session, error) {
	req, err := pb.CredentialsToStruct(pb.Credentials{UserName: userName, Verifier: verifier})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return s.installSession(resp)
}

func (s *GRPCClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := s.client.RefreshToken(ctx, wrapperspb.String(refreshToken))
	if err != nil {
		return nil, s.mapError(err)
	}
	return s.installSession(resp)
}

func (s *GRPCClient) installSession(resp *structpb.Struct) (*Session, error) {
	sess, err := pb.SessionFromStruct(resp)
	if err != nil {
		return nil, err
	}

	s.SetAccessToken(sess.AccessToken)
	return &Session{UserID: sess.UserID, AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}, nil
}

func (s *GRPCClient) ReadProfile(ctx context.Context) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	resp, err := s.client.ReadProfile(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}

	p, err := pb.ProfileFromStruct(resp)
	if err != nil {
		return nil, err
	}

	return &Profile{
		UserID:                 p.UserID,
		EncryptionSalt:         p.EncryptionSalt,
		EncryptedUserMasterKey: p.EncryptedUserMasterKey,
	}, nil
}

func (s *GRPCClient) WriteEncryptedMasterKey(ctx context.Context, blob string) error {
	_, err := s.client.WriteEncryptedMasterKey(ctx, wrapperspb.String(blob))
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetValue() != pb.PingOK {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.FailedPrecondition:
		return ErrMasterKeyAlreadySet
	case codes.AlreadyExists:
		return ErrUserExists
	case codes.InvalidArgument:
		return ErrInvalidArgument
	case codes.NotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
