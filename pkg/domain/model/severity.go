package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Severity represents a named weight class applied to incidences.
// Its value is the unit the scoring service subtracts per confirmed
// incidence. Incidences snapshot the severity at creation time, so
// later catalog edits never change existing records.
type Severity struct {
	ID    types.SeverityID `json:"id" yaml:"-"`
	Name  string           `json:"name" yaml:"name"`
	Value float64          `json:"value" yaml:"value"`
}

// Validate validates the severity
func (s *Severity) Validate() error {
	if s.Name == "" {
		return goerr.New("severity name is required")
	}
	if s.Value <= 0 {
		return goerr.New("severity value must be positive",
			goerr.V("name", s.Name),
			goerr.V("value", s.Value))
	}
	return nil
}

// FindSeverityByName finds a severity by its unique name
func FindSeverityByName(severities []*Severity, name string) *Severity {
	for _, sev := range severities {
		if sev.Name == name {
			result := *sev
			return &result
		}
	}
	return nil
}

// CommonIncidence is a reusable (description, severity) template used to
// speed up incidence creation. Editing a template does not retroactively
// affect incidences already created from it.
type CommonIncidence struct {
	ID        types.CommonIncidenceID `json:"id"`
	Incidence string                  `json:"incidence"`
	Severity  Severity                `json:"severity"`
}

// Validate validates the common incidence template
func (c *CommonIncidence) Validate() error {
	if c.Incidence == "" {
		return goerr.New("common incidence text is required")
	}
	if err := c.Severity.Validate(); err != nil {
		return goerr.Wrap(err, "invalid template severity")
	}
	return nil
}
