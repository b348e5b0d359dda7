package interfaces

import (
	"context"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Repository defines the store behind the reference server. It owns the
// invariants the external service is trusted with: at most one open
// period, resolve-only-pending, the one-shot comment and the score
// projection over counting incidences.
type Repository interface {
	// Period operations
	ListPeriods(ctx context.Context) ([]*model.Period, error)
	GetPeriod(ctx context.Context, id types.PeriodID) (*model.Period, error)
	CreatePeriod(ctx context.Context) (*model.Period, error)
	ClosePeriod(ctx context.Context, id types.PeriodID) error

	// Severity operations
	ListSeverities(ctx context.Context) ([]*model.Severity, error)
	CreateSeverity(ctx context.Context, name string, value float64) (*model.Severity, error)

	// Common incidence operations
	ListCommonIncidences(ctx context.Context) ([]*model.CommonIncidence, error)
	CreateCommonIncidence(ctx context.Context, incidence string, severity model.Severity) (*model.CommonIncidence, error)
	UpdateCommonIncidence(ctx context.Context, id types.CommonIncidenceID, incidence string, severity model.Severity) error

	// Incidence operations
	CreateIncidence(ctx context.Context, description string, severity model.Severity, assignedTo, createdBy model.UserRef) (*model.Incidence, error)
	GetIncidence(ctx context.Context, id types.IncidenceID) (*model.Incidence, error)
	ResolveIncidence(ctx context.Context, id types.IncidenceID, valid bool) error
	SetComment(ctx context.Context, id types.IncidenceID, comment string) error
	DeleteIncidence(ctx context.Context, id types.IncidenceID) error
	AddIncidenceImage(ctx context.Context, id types.IncidenceID, image model.IncidenceImage) error
	ListUserIncidences(ctx context.Context, userID types.UserID, periodID types.PeriodID) ([]*model.Incidence, error)
	ListPendingByCreator(ctx context.Context, adminID types.UserID) ([]*model.Incidence, error)

	// Score projection
	ListUserScores(ctx context.Context, userID types.UserID) ([]*model.UserScore, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User, password string) error
	GetUser(ctx context.Context, id types.UserID) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)

	// Close closes the repository
	Close() error
}
