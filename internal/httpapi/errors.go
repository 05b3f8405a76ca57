package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the innermost recorded stack trace of err, or "".
func stackOf(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}
	return fmt.Sprintf("%+v", st.StackTrace())
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("encode response")
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.writeJSON(w, http.StatusUnauthorized, errorBody{Detail: detail})
}

func (s *Server) clientError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorBody{Detail: detail})
}

// serverError logs err with its stack (when it carries one) and hides it
// from the client.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithField("path", r.URL.Path).WithField("stack", stackOf(err)).WithError(err).Error("request failed")
	s.writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal Server Error"})
}
