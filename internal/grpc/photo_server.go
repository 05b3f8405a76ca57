package grpcserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"photoShare/internal/auth"
	"photoShare/models"
)

// Gate is the session gate as seen by the gRPC layer.
type Gate interface {
	auth.Authenticator
	Login(ctx context.Context, username, password string) (auth.Token, error)
}

// Feed is the feed service as seen by the gRPC layer.
type Feed interface {
	Feed(ctx context.Context) ([]models.Post, error)
	Publish(ctx context.Context, username, caption, filename string, image io.Reader) (*models.Post, error)
}

// Server bundles dependencies and implements PhotoServiceServer.
type Server struct {
	Gate Gate
	Feed Feed
	Log  logrus.FieldLogger
}

// IssueToken exchanges credentials for a bearer token.
func (s *Server) IssueToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username := stringField(req, "username")
	tok, err := s.Gate.Login(ctx, username, stringField(req, "password"))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			s.Log.WithField("username", username).Info("login rejected")
			return nil, status.Error(codes.Unauthenticated, "incorrect username or password")
		}
		return nil, s.internal("login", err)
	}
	return structpb.NewStruct(map[string]any{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
	})
}

// ListFeed returns every post, newest first.
func (s *Server) ListFeed(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if _, err := auth.RequireUsername(ctx); err != nil {
		return nil, err
	}
	posts, err := s.Feed.Feed(ctx)
	if err != nil {
		return nil, s.internal("list feed", err)
	}
	items := make([]any, 0, len(posts))
	for _, p := range posts {
		items = append(items, map[string]any{
			"username":  p.Username,
			"image":     p.ImagePath,
			"caption":   p.Caption,
			"timestamp": p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return structpb.NewStruct(map[string]any{"posts": items})
}

// CreatePost stores the base64 image and records the post for the caller.
func (s *Server) CreatePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := auth.RequireUsername(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := req.GetFields()["caption"]; !ok {
		return nil, status.Error(codes.InvalidArgument, "caption is required")
	}
	encoded, ok := req.GetFields()["image"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "image is required")
	}
	img, err := base64.StdEncoding.DecodeString(encoded.GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "image is not base64: %v", err)
	}
	post, err := s.Feed.Publish(ctx, username, stringField(req, "caption"), stringField(req, "filename"), bytes.NewReader(img))
	if err != nil {
		return nil, s.internal("create post", err)
	}
	return structpb.NewStruct(map[string]any{
		"status":     "success",
		"image_path": post.ImagePath,
		"caption":    post.Caption,
	})
}

func (s *Server) internal(op string, err error) error {
	s.Log.WithField("op", op).WithError(err).Error("request failed")
	return status.Errorf(codes.Internal, "%s failed", op)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
