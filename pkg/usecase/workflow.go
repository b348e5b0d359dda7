package usecase

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
)

// Workflow drives the incidence lifecycle for one authenticated session:
// filing, review disposition, the one-time contest, deletion and the
// period-scoped score reads. All state lives behind the service client;
// the workflow owns the preconditions and the period gating.
type Workflow struct {
	api   interfaces.Client
	actor model.Claims
	caps  model.Capabilities
}

// NewWorkflow creates a workflow bound to a client and the session's
// claims. The capability set is resolved once here and consulted on
// every action instead of re-checking role strings.
func NewWorkflow(api interfaces.Client, actor *model.Claims) (*Workflow, error) {
	if api == nil {
		return nil, goerr.New("API client is required")
	}
	if actor == nil {
		return nil, goerr.Wrap(model.ErrAuthRequired, "workflow requires an authenticated actor")
	}
	if err := actor.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid actor claims")
	}

	return &Workflow{
		api:   api,
		actor: *actor,
		caps:  actor.Capabilities(),
	}, nil
}

// Actor returns the session's claims
func (w *Workflow) Actor() model.Claims {
	return w.actor
}

// Capabilities returns the session's resolved capability set
func (w *Workflow) Capabilities() model.Capabilities {
	return w.caps
}
