package usecase

import (
	"context"
	"io"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
	"github.com/conduct-lab/demerit/pkg/utils/async"
)

// ImageUpload is one evidentiary attachment queued behind an incidence
// creation
type ImageUpload struct {
	Filename string
	File     io.Reader
}

// CreateIncidenceInput are the inputs for filing an incidence. The
// owning period is not an input: it is always the currently open
// period, resolved at call time.
type CreateIncidenceInput struct {
	Description string
	AssignedTo  types.UserID
	Severity    string
	Images      []ImageUpload
}

// CreateIncidenceResult is the outcome of a filing: the created record
// plus any attachments that failed to upload. Upload failures never
// roll the incidence back.
type CreateIncidenceResult struct {
	Incidence    *model.Incidence
	FailedImages []string
}

// CreateIncidence files a pending-review incidence against the open
// period. Validation runs before any network call; attachments are
// uploaded concurrently once the incidence id is known.
func (w *Workflow) CreateIncidence(ctx context.Context, input CreateIncidenceInput) (*CreateIncidenceResult, error) {
	if !w.caps.CanFile {
		return nil, goerr.Wrap(model.ErrPermissionDenied, "filing incidences requires admin privileges",
			goerr.V("role", w.actor.Role))
	}

	// Validation errors resolve locally, never reaching the network
	if input.Description == "" {
		return nil, goerr.New("description is required")
	}
	if err := input.AssignedTo.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid assigned user")
	}
	if input.Severity == "" {
		return nil, goerr.New("severity is required")
	}

	severities, err := w.api.ListSeverities(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list severities")
	}
	if model.FindSeverityByName(severities, input.Severity) == nil {
		return nil, goerr.Wrap(model.ErrSeverityNotFound, "severity must exist in the catalog",
			goerr.V("severity", input.Severity))
	}

	current, err := w.CurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	incidence, err := w.api.CreateIncidence(ctx, interfaces.CreateIncidenceInput{
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		Severity:    input.Severity,
		Period:      current.ID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create incidence")
	}

	result := &CreateIncidenceResult{Incidence: incidence}
	if len(input.Images) == 0 {
		return result, nil
	}

	// Uploads fan out concurrently and only after the incidence id is
	// known. Each attachment gets its attempt regardless of siblings;
	// failures are reported but the incidence stands.
	tasks := make([]func(ctx context.Context) error, len(input.Images))
	for idx, img := range input.Images {
		tasks[idx] = func(ctx context.Context) error {
			return w.api.UploadIncidenceImage(ctx, incidence.ID, img.Filename, img.File)
		}
	}
	for idx, uploadErr := range async.Fanout(ctx, tasks) {
		if uploadErr != nil {
			ctxlog.From(ctx).Warn("image upload failed",
				"incidenceID", incidence.ID,
				"filename", input.Images[idx].Filename,
				"error", uploadErr,
			)
			result.FailedImages = append(result.FailedImages, input.Images[idx].Filename)
		}
	}

	return result, nil
}

// GetIncidence retrieves a single incidence
func (w *Workflow) GetIncidence(ctx context.Context, id types.IncidenceID) (*model.Incidence, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incidence ID")
	}
	return w.api.GetIncidence(ctx, id)
}

// ListUserIncidences lists a user's incidences within a period
func (w *Workflow) ListUserIncidences(ctx context.Context, userID types.UserID, periodID types.PeriodID) ([]*model.Incidence, error) {
	if err := userID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user ID")
	}
	if err := periodID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid period ID")
	}
	return w.api.ListUserIncidences(ctx, userID, periodID)
}
