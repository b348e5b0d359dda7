package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Period represents a bounded scoring interval. Exactly one period is
// open at any time; incidences are always filed against the open one.
type Period struct {
	ID        types.PeriodID `json:"id"`
	StartDate time.Time      `json:"start_date"`
	EndDate   *time.Time     `json:"end_date"`
	IsOpen    bool           `json:"is_open"`
}

// NewPeriod creates an open period starting now
func NewPeriod(id types.PeriodID) (*Period, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid period ID")
	}
	return &Period{
		ID:        id,
		StartDate: time.Now(),
		IsOpen:    true,
	}, nil
}

// Close stamps the end date and clears the open flag. Closing is one-way:
// a closed period never reopens and its incidences become un-contestable.
func (p *Period) Close(at time.Time) error {
	if !p.IsOpen {
		return goerr.Wrap(ErrPeriodClosed, "period is already closed",
			goerr.V("periodID", p.ID))
	}
	end := at
	p.EndDate = &end
	p.IsOpen = false
	return nil
}

// CurrentPeriod finds the unique open period in a registry listing.
// The open period is resolved by query on every use rather than cached,
// so a close/open race on the registry cannot leave a stale pointer.
func CurrentPeriod(periods []*Period) (*Period, error) {
	for _, p := range periods {
		if p.IsOpen {
			return p, nil
		}
	}
	return nil, goerr.Wrap(ErrNoOpenPeriod, "period registry has no open period",
		goerr.V("count", len(periods)))
}
