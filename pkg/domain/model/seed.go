package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// SeedUser is a user account in the seed catalog
type SeedUser struct {
	Username string     `yaml:"username"`
	Email    string     `yaml:"email"`
	Password string     `yaml:"password"`
	Role     types.Role `yaml:"role"`
}

// Validate validates the seed user
func (u *SeedUser) Validate() error {
	if u.Username == "" {
		return goerr.New("seed user username is required")
	}
	if u.Email == "" {
		return goerr.New("seed user email is required", goerr.V("username", u.Username))
	}
	if u.Password == "" {
		return goerr.New("seed user password is required", goerr.V("username", u.Username))
	}
	if !u.Role.IsValid() {
		return goerr.New("invalid seed user role",
			goerr.V("username", u.Username),
			goerr.V("role", u.Role))
	}
	return nil
}

// SeedTemplate is a common incidence template in the seed catalog,
// referencing a severity by name
type SeedTemplate struct {
	Incidence string `yaml:"incidence"`
	Severity  string `yaml:"severity"`
}

// Seed is the bootstrap catalog for the reference server: user accounts,
// the severity catalog and common incidence templates
type Seed struct {
	Users            []SeedUser     `yaml:"users"`
	Severities       []Severity     `yaml:"severities"`
	CommonIncidences []SeedTemplate `yaml:"common_incidences"`
}

// Validate validates the seed catalog
func (s *Seed) Validate() error {
	for i := range s.Users {
		if err := s.Users[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid seed user", goerr.V("index", i))
		}
	}

	names := make(map[string]bool)
	for i := range s.Severities {
		if err := s.Severities[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid seed severity", goerr.V("index", i))
		}
		if names[s.Severities[i].Name] {
			return goerr.New("duplicate severity name", goerr.V("name", s.Severities[i].Name))
		}
		names[s.Severities[i].Name] = true
	}

	for i, tpl := range s.CommonIncidences {
		if tpl.Incidence == "" {
			return goerr.New("seed template text is required", goerr.V("index", i))
		}
		if !names[tpl.Severity] {
			return goerr.New("seed template references unknown severity",
				goerr.V("index", i),
				goerr.V("severity", tpl.Severity))
		}
	}

	return nil
}
