package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// ListSeverities lists the severity catalog
func (w *Workflow) ListSeverities(ctx context.Context) ([]*model.Severity, error) {
	return w.api.ListSeverities(ctx)
}

// CreateSeverity adds a named weight class to the catalog. Existing
// incidences keep their severity snapshot regardless of catalog edits.
func (w *Workflow) CreateSeverity(ctx context.Context, name string, value float64) error {
	if !w.caps.CanManageCatalog {
		return goerr.Wrap(model.ErrPermissionDenied, "catalog edits require admin privileges",
			goerr.V("role", w.actor.Role))
	}
	severity := model.Severity{Name: name, Value: value}
	if err := severity.Validate(); err != nil {
		return err
	}
	return w.api.CreateSeverity(ctx, name, value)
}

// ListCommonIncidences lists the reusable incidence templates
func (w *Workflow) ListCommonIncidences(ctx context.Context) ([]*model.CommonIncidence, error) {
	return w.api.ListCommonIncidences(ctx)
}

// CreateCommonIncidence adds a reusable (description, severity) template
func (w *Workflow) CreateCommonIncidence(ctx context.Context, incidence, severity string) error {
	if !w.caps.CanManageCatalog {
		return goerr.Wrap(model.ErrPermissionDenied, "catalog edits require admin privileges",
			goerr.V("role", w.actor.Role))
	}
	if incidence == "" {
		return goerr.New("template text is required")
	}
	if severity == "" {
		return goerr.New("template severity is required")
	}
	return w.api.CreateCommonIncidence(ctx, incidence, severity)
}

// UpdateCommonIncidence edits a template. Incidences created from it
// keep their snapshots untouched.
func (w *Workflow) UpdateCommonIncidence(ctx context.Context, id types.CommonIncidenceID, incidence, severity string) error {
	if !w.caps.CanManageCatalog {
		return goerr.Wrap(model.ErrPermissionDenied, "catalog edits require admin privileges",
			goerr.V("role", w.actor.Role))
	}
	if incidence == "" {
		return goerr.New("template text is required")
	}
	if severity == "" {
		return goerr.New("template severity is required")
	}
	return w.api.UpdateCommonIncidence(ctx, id, incidence, severity)
}

// ListUsers lists all user accounts
func (w *Workflow) ListUsers(ctx context.Context) ([]*model.User, error) {
	return w.api.ListUsers(ctx)
}
