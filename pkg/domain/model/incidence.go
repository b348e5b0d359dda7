package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// IncidenceImage is an evidentiary attachment on an incidence
type IncidenceImage struct {
	ID  types.ImageID `json:"id"`
	URL string        `json:"url"`
}

// Incidence represents a recorded infraction against a user. It belongs
// to exactly one period, fixed at creation, and snapshots the severity
// and its value so later catalog edits never touch existing records.
//
// Status semantics follow the wire format: status=true means awaiting
// admin disposition, status=false means resolved. Valid=false means the
// incidence was annulled and is excluded from scoring.
type Incidence struct {
	ID          types.IncidenceID `json:"id"`
	Description string            `json:"description"`
	Severity    Severity          `json:"severity"`
	Value       float64           `json:"value"`
	AssignedTo  UserRef           `json:"assigned_to"`
	CreatedBy   UserRef           `json:"created_by"`
	Period      Period            `json:"period"`
	CreatedAt   time.Time         `json:"created_at"`
	Status      bool              `json:"status"`
	Valid       bool              `json:"valid"`
	Comment     *string           `json:"comment"`
	Images      []IncidenceImage  `json:"images,omitempty"`
}

// NewIncidence creates a pending-review incidence bound to the given
// period with a snapshot of the severity
func NewIncidence(id types.IncidenceID, description string, severity Severity, assignedTo, createdBy UserRef, period Period) (*Incidence, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incidence ID")
	}
	if description == "" {
		return nil, goerr.New("description is required")
	}
	if err := severity.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid severity")
	}
	if err := assignedTo.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid assigned user")
	}
	if err := createdBy.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid creator user")
	}
	if !period.IsOpen {
		return nil, goerr.Wrap(ErrPeriodClosed, "incidences can only target the open period",
			goerr.V("periodID", period.ID))
	}

	return &Incidence{
		ID:          id,
		Description: description,
		Severity:    severity,
		Value:       severity.Value,
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		Period:      period,
		CreatedAt:   time.Now(),
		Status:      true,
		Valid:       true,
	}, nil
}

// State derives the review state from the status/valid pair
func (i *Incidence) State() types.ReviewState {
	if i.Status {
		return types.ReviewStatePending
	}
	if i.Valid {
		return types.ReviewStateConfirmed
	}
	return types.ReviewStateAnnulled
}

// CanResolve reports whether an admin resolve action is still possible.
// Once the incidence has left pending review it must not regress, so a
// second resolve attempt fails here before any request goes out.
func (i *Incidence) CanResolve() error {
	if !i.Status {
		return goerr.Wrap(ErrAlreadyResolved, "incidence cannot be resolved again",
			goerr.V("incidenceID", i.ID),
			goerr.V("state", i.State()))
	}
	return nil
}

// Resolve applies an admin disposition. Confirm keeps the incidence
// counting; annul excludes it from scoring. Annulment is irreversible
// through this workflow.
func (i *Incidence) Resolve(disposition types.Disposition) error {
	if err := i.CanResolve(); err != nil {
		return err
	}
	if !disposition.IsValid() {
		return goerr.New("invalid disposition", goerr.V("disposition", disposition))
	}

	i.Status = false
	if disposition == types.DispositionAnnul {
		i.Valid = false
	}
	return nil
}

// CanContest reports whether the assigned user may still add a rebuttal
// comment: the incidence must be confirmed, not yet commented, and its
// owning period still open. A violation leaves the incidence untouched.
func (i *Incidence) CanContest() error {
	if i.Status {
		return goerr.Wrap(ErrNotResolved, "cannot contest an incidence under review",
			goerr.V("incidenceID", i.ID))
	}
	if !i.Valid {
		return goerr.Wrap(ErrNotCounting, "cannot contest an annulled incidence",
			goerr.V("incidenceID", i.ID))
	}
	if i.Comment != nil {
		return goerr.Wrap(ErrAlreadyCommented, "contest comment can be set at most once",
			goerr.V("incidenceID", i.ID))
	}
	if !i.Period.IsOpen {
		return goerr.Wrap(ErrPeriodClosed, "contest window closed with the period",
			goerr.V("incidenceID", i.ID),
			goerr.V("periodID", i.Period.ID))
	}
	return nil
}

// Contest sets the one-shot rebuttal comment. The comment is never
// cleared through this flow and the status/valid pair is left untouched.
func (i *Incidence) Contest(comment string) error {
	if comment == "" {
		return goerr.New("comment must not be empty", goerr.V("incidenceID", i.ID))
	}
	if err := i.CanContest(); err != nil {
		return err
	}
	i.Comment = &comment
	return nil
}

// CanDelete reports whether the record may be purged. The service
// gates delete on valid=true, so counting records can be purged while
// annulled ones cannot; kept as-is pending product clarification.
func (i *Incidence) CanDelete() error {
	if !i.Valid {
		return goerr.Wrap(ErrNotCounting, "delete is gated on counting incidences",
			goerr.V("incidenceID", i.ID),
			goerr.V("state", i.State()))
	}
	return nil
}
