package interfaces

import (
	"context"
	"io"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// CreateIncidenceInput is the request shape for filing an incidence.
// Severity is referenced by its unique name and Period must be the
// currently open period.
type CreateIncidenceInput struct {
	Description string         `json:"description"`
	AssignedTo  types.UserID   `json:"assigned_to"`
	Severity    string         `json:"severity"`
	Period      types.PeriodID `json:"period"`
}

// Resolution is the request shape for an admin resolve action. Confirm
// leaves Valid nil so the service defaults it to true; annul sets it to
// false explicitly.
type Resolution struct {
	Status bool  `json:"status"`
	Valid  *bool `json:"valid,omitempty"`
}

// Client is the request/response contract the workflow consumes from
// the incidence service. Every call carries the bearer credential; a
// missing or expired credential surfaces as model.ErrAuthRequired and
// the caller re-authenticates instead of retrying.
type Client interface {
	// Period registry
	ListPeriods(ctx context.Context) ([]*model.Period, error)
	CreatePeriod(ctx context.Context) (*model.Period, error)
	ClosePeriod(ctx context.Context, id types.PeriodID) error

	// Severity catalog
	ListSeverities(ctx context.Context) ([]*model.Severity, error)
	CreateSeverity(ctx context.Context, name string, value float64) error

	// Common incidence templates
	ListCommonIncidences(ctx context.Context) ([]*model.CommonIncidence, error)
	CreateCommonIncidence(ctx context.Context, incidence, severity string) error
	UpdateCommonIncidence(ctx context.Context, id types.CommonIncidenceID, incidence, severity string) error

	// Incidence lifecycle
	CreateIncidence(ctx context.Context, input CreateIncidenceInput) (*model.Incidence, error)
	UploadIncidenceImage(ctx context.Context, id types.IncidenceID, filename string, file io.Reader) error
	GetIncidence(ctx context.Context, id types.IncidenceID) (*model.Incidence, error)
	ResolveIncidence(ctx context.Context, id types.IncidenceID, resolution Resolution) error
	AddComment(ctx context.Context, id types.IncidenceID, comment string) error
	DeleteIncidence(ctx context.Context, id types.IncidenceID) error
	ListUserIncidences(ctx context.Context, userID types.UserID, periodID types.PeriodID) ([]*model.Incidence, error)
	ListAdminPendingIncidences(ctx context.Context, adminID types.UserID) ([]*model.Incidence, error)

	// Score accessor (read-only projection)
	ListUserScores(ctx context.Context, userID types.UserID) ([]*model.UserScore, error)

	// Users
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, id types.UserID) (*model.User, error)
}
