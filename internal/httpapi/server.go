// Package httpapi is the HTTP boundary: token issuance, the feed, post
// uploads and the static image directory.
package httpapi

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"photoShare/internal/auth"
	"photoShare/models"
)

// maxUploadBytes bounds a multipart post body.
const maxUploadBytes = 32 << 20

// Gate is the session gate as seen by the HTTP layer.
type Gate interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

// Feed is the feed service as seen by the HTTP layer.
type Feed interface {
	Feed(ctx context.Context) ([]models.Post, error)
	Publish(ctx context.Context, username, caption, filename string, image io.Reader) (*models.Post, error)
}

// Options configure the boundary. They are fixed at construction.
type Options struct {
	AllowedOrigin   string
	StaticDir       string
	StaticURLPrefix string
}

type Server struct {
	gate Gate
	feed Feed
	log  logrus.FieldLogger
	opts Options
}

func NewServer(gate Gate, feed Feed, log logrus.FieldLogger, opts Options) *Server {
	if opts.StaticURLPrefix == "" {
		opts.StaticURLPrefix = "/static"
	}
	return &Server{gate: gate, feed: feed, log: log, opts: opts}
}

// Routes returns the handler for all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", s.issueToken)
	mux.HandleFunc("GET /feed", s.requireAuth(s.readFeed))
	mux.HandleFunc("POST /post", s.requireAuth(s.createPost))
	if s.opts.StaticDir != "" {
		prefix := s.opts.StaticURLPrefix + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(s.opts.StaticDir)})))
	}
	return s.logRequests(s.cors(mux))
}

// filesOnly hides directories so the static route never lists uploads.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// NewHTTPServer wraps handler with the timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
