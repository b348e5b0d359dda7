package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/conduct-lab/demerit/pkg/domain/model"
)

// Seed holds the seed catalog configuration for the reference server
type Seed struct {
	Path string
}

// Flags returns CLI flags for Seed configuration
func (s *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "YAML seed catalog (users, severities, common incidences)",
			Category:    "Server",
			Sources:     cli.EnvVars("DEMERIT_SEED"),
			Destination: &s.Path,
		},
	}
}

// Load reads and validates the seed catalog. A missing path yields a
// nil seed, which boots an empty store.
func (s *Seed) Load() (*model.Seed, error) {
	if s.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "seed catalog not found", goerr.V("path", s.Path))
		}
		return nil, goerr.Wrap(err, "failed to read seed catalog", goerr.V("path", s.Path))
	}

	var seed model.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed catalog", goerr.V("path", s.Path))
	}
	if err := seed.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid seed catalog", goerr.V("path", s.Path))
	}

	return &seed, nil
}

// LogValue returns structured log value
func (s Seed) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", s.Path),
	)
}
