package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"gopkg.in/yaml.v3"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

const seedYAML = `
users:
  - username: boss
    email: boss@example.com
    password: secret
    role: admin
  - username: worker
    email: worker@example.com
    password: secret
    role: user
severities:
  - name: leve
    value: 5
  - name: grave
    value: 20
common_incidences:
  - incidence: late to shift
    severity: leve
`

func TestSeed_Decode(t *testing.T) {
	var seed model.Seed
	gt.NoError(t, yaml.Unmarshal([]byte(seedYAML), &seed)).Required()
	gt.NoError(t, seed.Validate())

	gt.Equal(t, len(seed.Users), 2)
	gt.Equal(t, seed.Users[0].Role, types.RoleAdmin)
	gt.Equal(t, len(seed.Severities), 2)
	gt.Equal(t, seed.Severities[1].Value, 20.0)
	gt.Equal(t, seed.CommonIncidences[0].Severity, "leve")
}

func TestSeed_Validate(t *testing.T) {
	base := func() model.Seed {
		return model.Seed{
			Users: []model.SeedUser{
				{Username: "boss", Email: "boss@example.com", Password: "x", Role: types.RoleAdmin},
			},
			Severities: []model.Severity{
				{Name: "leve", Value: 5},
			},
			CommonIncidences: []model.SeedTemplate{
				{Incidence: "late", Severity: "leve"},
			},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		seed := base()
		gt.NoError(t, seed.Validate())
	})

	t.Run("DuplicateSeverityName", func(t *testing.T) {
		seed := base()
		seed.Severities = append(seed.Severities, model.Severity{Name: "leve", Value: 10})
		gt.Error(t, seed.Validate())
	})

	t.Run("TemplateUnknownSeverity", func(t *testing.T) {
		seed := base()
		seed.CommonIncidences[0].Severity = "missing"
		gt.Error(t, seed.Validate())
	})

	t.Run("UserMissingPassword", func(t *testing.T) {
		seed := base()
		seed.Users[0].Password = ""
		gt.Error(t, seed.Validate())
	})

	t.Run("UserBadRole", func(t *testing.T) {
		seed := base()
		seed.Users[0].Role = "wizard"
		gt.Error(t, seed.Validate())
	})
}
