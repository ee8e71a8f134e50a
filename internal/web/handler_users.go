package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/service"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.userJSON(r, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, s.opts.PageSize)
	users, total, err := s.users.List(r.Context(), p.limit, p.offset())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.usersJSON(r, users)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginate(r, p, total, out))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.userJSON(r, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	out, err := s.userJSON(r, auth.UserFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.PasswordChange
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.users.SetPassword(r.Context(), auth.UserFrom(r.Context()), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recipesLimit reads the optional "recipes_limit" query parameter. Zero
// means no limit.
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, s.opts.PageSize)
	authors, total, err := s.users.Subscriptions(r.Context(), auth.UserFrom(r.Context()), p.limit, p.offset(), recipesLimit(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]authorJSON, 0, len(authors))
	for _, a := range authors {
		j, err := s.authorJSON(r, a)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, j)
	}
	writeJSON(w, http.StatusOK, paginate(r, p, total, out))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ar, err := s.users.Subscribe(r.Context(), auth.UserFrom(r.Context()), id, recipesLimit(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.authorJSON(r, ar)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.users.Unsubscribe(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
