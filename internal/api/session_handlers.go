package api

import (
	"encoding/json"
	"net/http"

	"github.com/socialchef/larder/internal/metrics"
	"github.com/socialchef/larder/internal/middleware"
	"github.com/socialchef/larder/internal/session"
)

type SessionInputRequest struct {
	Input string `json:"input"`
}

// session returns the caller's session, creating it when create is set.
func (s *Server) session(w http.ResponseWriter, r *http.Request, create bool) (userID string, sess *session.Session, ok bool) {
	userID, ok = middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return "", nil, false
	}
	if create {
		sess = s.sessions.Get(userID)
	} else {
		sess, _ = s.sessions.Lookup(userID)
	}
	metrics.SessionsActive.Set(float64(s.sessions.Len()))
	return userID, sess, true
}

// HandleGetSession reports the caller's state. Reading never creates a session.
func (s *Server) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}
	writeJSON(w, http.StatusOK, s.sessions.Snapshot(userID))
}

func (s *Server) HandleSetInput(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		writeError(w, r, unauthorized())
		return
	}

	var req SessionInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, invalidBody(err))
		return
	}

	_, sess, _ := s.session(w, r, true)

	writeJSON(w, http.StatusOK, sess.SetInput(req.Input))
}

// HandleSessionGenerate runs a generation for the session's current list.
// After a generator failure the session stays failed until the input changes
// or the client goes back.
func (s *Server) HandleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.session(w, r, false)
	if !ok {
		return
	}
	if sess == nil {
		writeError(w, r, sessionError(session.ErrNotReady, s.generator.MinIngredients()))
		return
	}

	snap, err := sess.Generate(r.Context(), s.generator)
	if err != nil {
		writeError(w, r, sessionError(err, s.generator.MinIngredients()))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) HandleSessionBack(w http.ResponseWriter, r *http.Request) {
	userID, sess, ok := s.session(w, r, false)
	if !ok {
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusOK, s.sessions.Snapshot(userID))
		return
	}
	writeJSON(w, http.StatusOK, sess.Back())
}

func (s *Server) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}
	s.sessions.Remove(userID)
	metrics.SessionsActive.Set(float64(s.sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}
