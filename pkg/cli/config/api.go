package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/service/apiclient"
	"github.com/conduct-lab/demerit/pkg/usecase"
)

// API holds client-side configuration: where the incidence service
// lives and the bearer credential obtained at login
type API struct {
	BaseURL string
	Token   string
}

// Flags returns CLI flags for API configuration
func (a *API) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "Base URL of the incidence service",
			Category:    "API",
			Value:       "http://localhost:8080",
			Sources:     cli.EnvVars("DEMERIT_API_URL"),
			Destination: &a.BaseURL,
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Bearer token obtained from login",
			Category:    "API",
			Sources:     cli.EnvVars("DEMERIT_TOKEN"),
			Destination: &a.Token,
		},
	}
}

// Client builds the HTTP client for the configured endpoint
func (a *API) Client() *apiclient.Client {
	return apiclient.New(a.BaseURL, apiclient.WithToken(a.Token))
}

// Workflow builds a workflow for the session encoded in the token
func (a *API) Workflow() (*usecase.Workflow, error) {
	if a.Token == "" {
		return nil, goerr.Wrap(model.ErrAuthRequired, "login first and pass the token")
	}
	claims, err := model.ParseClaims(a.Token)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflow(a.Client(), claims)
}

// LogValue returns structured log value. The token is not logged.
func (a API) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("baseURL", a.BaseURL),
		slog.Bool("hasToken", a.Token != ""),
	)
}
