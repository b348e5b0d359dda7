package config

import (
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
)

// Server holds reference server configuration
type Server struct {
	Addr      string
	Secret    string
	TokenTTL  time.Duration
	ScoreBase float64
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Category:    "Server",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("DEMERIT_ADDR"),
			Destination: &s.Addr,
		},
		&cli.StringFlag{
			Name:        "auth-secret",
			Usage:       "HS256 secret for signing bearer tokens",
			Category:    "Server",
			Required:    true,
			Sources:     cli.EnvVars("DEMERIT_AUTH_SECRET"),
			Destination: &s.Secret,
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Bearer token lifetime",
			Category:    "Server",
			Value:       24 * time.Hour,
			Sources:     cli.EnvVars("DEMERIT_TOKEN_TTL"),
			Destination: &s.TokenTTL,
		},
		&cli.FloatFlag{
			Name:        "score-base",
			Usage:       "Baseline each per-period score starts from",
			Category:    "Server",
			Value:       100,
			Sources:     cli.EnvVars("DEMERIT_SCORE_BASE"),
			Destination: &s.ScoreBase,
		},
	}
}

// LogValue returns structured log value. The secret is not logged.
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.Duration("tokenTTL", s.TokenTTL),
		slog.Float64("scoreBase", s.ScoreBase),
		slog.Bool("hasSecret", s.Secret != ""),
	)
}
