package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

type createIncidenceRequest struct {
	Description string `json:"description" validate:"required"`
	AssignedTo  int    `json:"assigned_to" validate:"required,gt=0"`
	Severity    string `json:"severity" validate:"required"`
	Period      int    `json:"period" validate:"required,gt=0"`
}

func (s *Server) handleCreateIncidence(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, goerr.Wrap(model.ErrAuthRequired, "no claims in context"))
		return
	}

	var req createIncidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid incidence body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	// The requested period must be the currently open one
	periods, err := s.repo.ListPeriods(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := model.CurrentPeriod(periods)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if current.ID != types.PeriodID(req.Period) {
		writeError(w, r, goerr.Wrap(model.ErrPeriodClosed, "incidences can only target the open period",
			goerr.V("requested", req.Period),
			goerr.V("open", current.ID)))
		return
	}

	severity, err := s.severityByName(r, req.Severity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	assigned, err := s.repo.GetUser(r.Context(), types.UserID(req.AssignedTo))
	if err != nil {
		writeError(w, r, err)
		return
	}
	creator, err := s.repo.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	incidence, err := s.repo.CreateIncidence(r.Context(), req.Description, *severity, assigned.Ref(), creator.Ref())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, incidence)
}

func (s *Server) handleGetIncidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	incidence, err := s.repo.GetIncidence(r.Context(), types.IncidenceID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incidence)
}

type resolveRequest struct {
	Status bool  `json:"status"`
	Valid  *bool `json:"valid"`
}

func (s *Server) handleResolveIncidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid resolution body"))
		return
	}
	if req.Status {
		writeBadRequest(w, r, goerr.New("resolution must set status to false"))
		return
	}

	// Omitted valid defaults to true (confirm); annul sends false
	valid := true
	if req.Valid != nil {
		valid = *req.Valid
	}

	if err := s.repo.ResolveIncidence(r.Context(), types.IncidenceID(id), valid); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nil)
}

type commentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, goerr.Wrap(model.ErrAuthRequired, "no claims in context"))
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid comment body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	// Only the assigned user may contest their own incidence
	incidence, err := s.repo.GetIncidence(r.Context(), types.IncidenceID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if incidence.AssignedTo.ID != claims.UserID {
		writeError(w, r, goerr.Wrap(model.ErrPermissionDenied, "only the assigned user may contest",
			goerr.V("incidenceID", incidence.ID)))
		return
	}

	if err := s.repo.SetComment(r.Context(), types.IncidenceID(id), req.Comment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nil)
}

func (s *Server) handleDeleteIncidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := s.repo.DeleteIncidence(r.Context(), types.IncidenceID(id)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nil)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "image file is required"))
		return
	}
	defer file.Close()

	// The reference server records the attachment without persisting
	// file bytes; a real deployment would push them to object storage.
	imageID := types.NewImageID()
	image := model.IncidenceImage{
		ID:  imageID,
		URL: fmt.Sprintf("/uploads/%s/%s", imageID, header.Filename),
	}
	if err := s.repo.AddIncidenceImage(r.Context(), types.IncidenceID(id), image); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, image)
}

func (s *Server) handleListUserIncidences(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	periodID, err := pathID(r, "periodID")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	incidences, err := s.repo.ListUserIncidences(r.Context(), types.UserID(userID), types.PeriodID(periodID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incidences)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	adminID, err := pathID(r, "adminID")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	incidences, err := s.repo.ListPendingByCreator(r.Context(), types.UserID(adminID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incidences)
}
