package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.repo.ListPeriods(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, periods)
}

func (s *Server) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := s.repo.CreatePeriod(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, period)
}

func (s *Server) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := s.repo.ClosePeriod(r.Context(), types.PeriodID(id)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nil)
}

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, goerr.New("invalid path parameter",
			goerr.V("name", name),
			goerr.V("value", raw))
	}
	return id, nil
}
