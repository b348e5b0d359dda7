package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
)

// Bootstrap loads a seed catalog into a repository: user accounts, the
// severity catalog and the common incidence templates referencing them.
func Bootstrap(ctx context.Context, repo interfaces.Repository, seed *model.Seed) error {
	if seed == nil {
		return nil
	}
	if err := seed.Validate(); err != nil {
		return goerr.Wrap(err, "invalid seed catalog")
	}

	for i := range seed.Users {
		su := seed.Users[i]
		user := &model.User{
			Username: su.Username,
			Email:    su.Email,
			Role:     su.Role,
		}
		if err := repo.SaveUser(ctx, user, su.Password); err != nil {
			return goerr.Wrap(err, "failed to seed user", goerr.V("username", su.Username))
		}
	}

	byName := make(map[string]model.Severity)
	for i := range seed.Severities {
		sev, err := repo.CreateSeverity(ctx, seed.Severities[i].Name, seed.Severities[i].Value)
		if err != nil {
			return goerr.Wrap(err, "failed to seed severity", goerr.V("name", seed.Severities[i].Name))
		}
		byName[sev.Name] = *sev
	}

	for i := range seed.CommonIncidences {
		tpl := seed.CommonIncidences[i]
		sev, ok := byName[tpl.Severity]
		if !ok {
			return goerr.Wrap(model.ErrSeverityNotFound, "seed template references unknown severity",
				goerr.V("severity", tpl.Severity))
		}
		if _, err := repo.CreateCommonIncidence(ctx, tpl.Incidence, sev); err != nil {
			return goerr.Wrap(err, "failed to seed common incidence", goerr.V("index", i))
		}
	}

	return nil
}
