package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// CurrentPeriod resolves the currently open period by querying the
// registry. The result is never cached: a close/open race on the
// registry must not leave the workflow holding a stale pointer, so
// every creation or contest attempt re-resolves.
func (w *Workflow) CurrentPeriod(ctx context.Context) (*model.Period, error) {
	periods, err := w.api.ListPeriods(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list periods")
	}
	return model.CurrentPeriod(periods)
}

// ListPeriods lists all scoring periods
func (w *Workflow) ListPeriods(ctx context.Context) ([]*model.Period, error) {
	return w.api.ListPeriods(ctx)
}

// OpenPeriod starts a new scoring period
func (w *Workflow) OpenPeriod(ctx context.Context) (*model.Period, error) {
	if !w.caps.CanManagePeriods {
		return nil, goerr.Wrap(model.ErrPermissionDenied, "opening periods requires admin privileges",
			goerr.V("role", w.actor.Role))
	}
	return w.api.CreatePeriod(ctx)
}

// ClosePeriod ends a scoring period. Closing is one-way: every
// incidence bound to the period becomes permanently un-contestable.
func (w *Workflow) ClosePeriod(ctx context.Context, id types.PeriodID) error {
	if !w.caps.CanManagePeriods {
		return goerr.Wrap(model.ErrPermissionDenied, "closing periods requires admin privileges",
			goerr.V("role", w.actor.Role))
	}
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid period ID")
	}
	return w.api.ClosePeriod(ctx, id)
}
