// Package feed composes image storage and the post store into the two
// user-facing feed operations.
//
// Publishing writes the image first and the post record second, with no
// atomicity between them. If the record write fails the image stays on disk
// as an orphan. This is a known limitation; the failure is logged and
// returned, nothing is rolled back.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"photoShare/models"
)

// imageTimeLayout formats the upload time inside generated image names.
const imageTimeLayout = "20060102_150405"

// ErrEmptyUsername is returned when Publish is called without an author.
var ErrEmptyUsername = errors.New("username is required")

// PostStore is the subset of the post repository the service uses.
type PostStore interface {
	Create(ctx context.Context, username, imagePath, caption string) (*models.Post, error)
	ListFeed(ctx context.Context) ([]models.Post, error)
}

// BlobStore durably stores image bytes and returns a reference to them.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

type Service struct {
	posts PostStore
	blobs BlobStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(posts PostStore, blobs BlobStore, log logrus.FieldLogger) *Service {
	return &Service{posts: posts, blobs: blobs, log: log, now: time.Now}
}

// WithClock returns a copy of the service that names images using now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Feed returns all posts, newest first.
func (s *Service) Feed(ctx context.Context) ([]models.Post, error) {
	return s.posts.ListFeed(ctx)
}

// Publish stores the image under a name derived from the author and the
// current time, then records the post.
func (s *Service) Publish(ctx context.Context, username, caption, filename string, image io.Reader) (*models.Post, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	name := ImageName(username, s.now(), filename)
	ref, err := s.blobs.Put(ctx, name, image)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	post, err := s.posts.Create(ctx, username, ref, caption)
	if err != nil {
		s.log.WithFields(logrus.Fields{"username": username, "image": ref}).WithError(err).
			Warn("post record not written; image left orphaned")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"username": username, "post_id": post.ID, "image": ref}).Info("post created")
	return post, nil
}

// ImageName builds "{username}_{YYYYMMDD_HHMMSS}{ext}" where ext is the
// extension of the uploaded filename (empty when there is none).
func ImageName(username string, at time.Time, filename string) string {
	return fmt.Sprintf("%s_%s%s", username, at.Format(imageTimeLayout), filepath.Ext(filepath.Base(filename)))
}
