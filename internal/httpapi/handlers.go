package httpapi

import (
	"errors"
	"net/http"
	"time"

	"photoShare/internal/auth"
)

type feedItem struct {
	Username  string `json:"username"`
	Image     string `json:"image"`
	Caption   string `json:"caption"`
	Timestamp string `json:"timestamp"`
}

type postCreated struct {
	Status    string `json:"status"`
	ImagePath string `json:"image_path"`
	Caption   string `json:"caption"`
}

// issueToken exchanges form credentials for a bearer token.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username := r.PostForm.Get("username")
	tok, err := s.gate.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			s.log.WithField("username", username).Info("login rejected")
			s.unauthorized(w, "Incorrect username or password")
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tok)
}

func (s *Server) readFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := s.feed.Feed(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	out := make([]feedItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, feedItem{
			Username:  p.Username,
			Image:     p.ImagePath,
			Caption:   p.Caption,
			Timestamp: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// createPost stores the uploaded image and records the post for the
// authenticated user.
func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		s.unauthorized(w, "Could not validate credentials")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	captions, ok := r.MultipartForm.Value["caption"]
	if !ok || len(captions) == 0 {
		s.clientError(w, http.StatusBadRequest, "caption is required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	post, err := s.feed.Publish(r.Context(), username, captions[0], header.Filename, file)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, postCreated{Status: "success", ImagePath: post.ImagePath, Caption: post.Caption})
}
