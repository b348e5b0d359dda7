package http

import (
	"net/http"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

func (s *Server) handleListUserScores(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	scores, err := s.repo.ListUserScores(r.Context(), types.UserID(userID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scores)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := s.repo.GetUser(r.Context(), types.UserID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}
