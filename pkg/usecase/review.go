package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// PendingReview lists the actor's pending-review queue
func (w *Workflow) PendingReview(ctx context.Context) ([]*model.Incidence, error) {
	if !w.caps.CanResolve {
		return nil, goerr.Wrap(model.ErrPermissionDenied, "the review queue requires admin privileges",
			goerr.V("role", w.actor.Role))
	}
	return w.api.ListAdminPendingIncidences(ctx, w.actor.UserID)
}

// Resolve applies an admin disposition to a pending incidence and
// returns the refreshed pending queue. The fresh fetch before the call
// stops a resolve from regressing an already disposed incidence; the
// refreshed list afterwards is eventually consistent, not a
// transactional guarantee against a concurrent admin racing the same
// record.
func (w *Workflow) Resolve(ctx context.Context, id types.IncidenceID, disposition types.Disposition) ([]*model.Incidence, error) {
	if !w.caps.CanResolve {
		return nil, goerr.Wrap(model.ErrPermissionDenied, "resolving requires admin privileges",
			goerr.V("role", w.actor.Role))
	}
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incidence ID")
	}
	if !disposition.IsValid() {
		return nil, goerr.New("invalid disposition", goerr.V("disposition", disposition))
	}

	incidence, err := w.api.GetIncidence(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch incidence")
	}
	if err := incidence.CanResolve(); err != nil {
		return nil, err
	}

	// Confirm omits valid so the service defaults it to true
	resolution := interfaces.Resolution{Status: false}
	if disposition == types.DispositionAnnul {
		valid := false
		resolution.Valid = &valid
	}
	if err := w.api.ResolveIncidence(ctx, id, resolution); err != nil {
		return nil, goerr.Wrap(err, "failed to resolve incidence",
			goerr.V("incidenceID", id),
			goerr.V("disposition", disposition))
	}

	return w.api.ListAdminPendingIncidences(ctx, w.actor.UserID)
}

// Contest adds the assigned user's one-time rebuttal comment. The
// incidence is re-fetched so the preconditions (confirmed, uncommented,
// owning period still open) are checked against current state; any
// violation fails without mutating anything.
func (w *Workflow) Contest(ctx context.Context, id types.IncidenceID, comment string) error {
	if !w.caps.CanContest {
		return goerr.Wrap(model.ErrPermissionDenied, "contesting is reserved for the assigned user",
			goerr.V("role", w.actor.Role))
	}
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incidence ID")
	}
	if comment == "" {
		return goerr.New("comment must not be empty")
	}

	incidence, err := w.api.GetIncidence(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch incidence")
	}
	if incidence.AssignedTo.ID != w.actor.UserID {
		return goerr.Wrap(model.ErrPermissionDenied, "only the assigned user may contest",
			goerr.V("incidenceID", id),
			goerr.V("assignedTo", incidence.AssignedTo.ID))
	}
	if err := incidence.CanContest(); err != nil {
		return err
	}

	return w.api.AddComment(ctx, id, comment)
}

// Delete permanently removes an incidence record. The service gates
// deletion on valid=true; that gate is checked here as well so a doomed
// request never goes out.
func (w *Workflow) Delete(ctx context.Context, id types.IncidenceID) error {
	if !w.caps.CanDelete {
		return goerr.Wrap(model.ErrPermissionDenied, "deleting requires admin privileges",
			goerr.V("role", w.actor.Role))
	}
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incidence ID")
	}

	incidence, err := w.api.GetIncidence(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch incidence")
	}
	if err := incidence.CanDelete(); err != nil {
		return err
	}

	return w.api.DeleteIncidence(ctx, id)
}
