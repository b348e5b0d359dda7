package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

func (s *Server) handleListSeverities(w http.ResponseWriter, r *http.Request) {
	severities, err := s.repo.ListSeverities(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, severities)
}

type createSeverityRequest struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value" validate:"required,gt=0"`
}

func (s *Server) handleCreateSeverity(w http.ResponseWriter, r *http.Request) {
	var req createSeverityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid severity body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	severity, err := s.repo.CreateSeverity(r.Context(), req.Name, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, severity)
}

func (s *Server) handleListCommonIncidences(w http.ResponseWriter, r *http.Request) {
	templates, err := s.repo.ListCommonIncidences(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, templates)
}

type commonIncidenceRequest struct {
	Incidence string `json:"incidence" validate:"required"`
	Severity  string `json:"severity" validate:"required"`
}

// severityByName resolves a severity reference for template requests
func (s *Server) severityByName(r *http.Request, name string) (*model.Severity, error) {
	severities, err := s.repo.ListSeverities(r.Context())
	if err != nil {
		return nil, err
	}
	severity := model.FindSeverityByName(severities, name)
	if severity == nil {
		return nil, goerr.Wrap(model.ErrSeverityNotFound, "unknown severity name",
			goerr.V("name", name))
	}
	return severity, nil
}

func (s *Server) handleCreateCommonIncidence(w http.ResponseWriter, r *http.Request) {
	var req commonIncidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid template body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	severity, err := s.severityByName(r, req.Severity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	template, err := s.repo.CreateCommonIncidence(r.Context(), req.Incidence, *severity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, template)
}

func (s *Server) handleUpdateCommonIncidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	var req commonIncidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid template body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	severity, err := s.severityByName(r, req.Severity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.repo.UpdateCommonIncidence(r.Context(), types.CommonIncidenceID(id), req.Incidence, *severity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nil)
}
