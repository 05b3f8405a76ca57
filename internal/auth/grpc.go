package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Authenticator resolves a bearer token to a username.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that authenticates
// the bearer token in incoming metadata and stores the username in the context.
// Methods listed in allowUnauthenticated bypass authentication (login, health checks).
func NewUnaryAuthInterceptor(gate Authenticator, log logrus.FieldLogger, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		tok, err := BearerFromMD(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		username, err := gate.Authenticate(ctx, tok)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				log.WithField("method", info.FullMethod).WithError(err).Info("rejected token")
				return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
			}
			log.WithField("method", info.FullMethod).WithError(err).Error("authenticate")
			return nil, status.Error(codes.Internal, "authentication unavailable")
		}
		return handler(WithUsername(ctx, username), req)
	}
}

// RequireUsername returns the authenticated username or Unauthenticated.
func RequireUsername(ctx context.Context) (string, error) {
	u, ok := UsernameFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing principal")
	}
	return u, nil
}
