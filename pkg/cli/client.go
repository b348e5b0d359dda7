package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/conduct-lab/demerit/pkg/cli/config"
	"github.com/conduct-lab/demerit/pkg/domain/types"
	"github.com/conduct-lab/demerit/pkg/usecase"
)

// printJSON renders a value as indented JSON on stdout
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func cmdLogin() *cli.Command {
	var (
		apiCfg   config.API
		email    string
		password string
	)

	flags := joinFlags(
		apiCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Usage:       "Login email",
				Required:    true,
				Destination: &email,
			},
			&cli.StringFlag{
				Name:        "password",
				Usage:       "Login password",
				Required:    true,
				Sources:     cli.EnvVars("DEMERIT_PASSWORD"),
				Destination: &password,
			},
		},
	)

	return &cli.Command{
		Name:  "login",
		Usage: "Exchange credentials for a bearer token",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			result, err := apiCfg.Client().Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Println(result.Token)
			return nil
		},
	}
}

func cmdPeriod() *cli.Command {
	var apiCfg config.API

	return &cli.Command{
		Name:  "period",
		Usage: "Manage scoring periods",
		Flags: apiCfg.Flags(),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all periods",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					periods, err := wf.ListPeriods(ctx)
					if err != nil {
						return err
					}
					return printJSON(periods)
				},
			},
			{
				Name:  "open",
				Usage: "Open a new period starting now",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					period, err := wf.OpenPeriod(ctx)
					if err != nil {
						return err
					}
					return printJSON(period)
				},
			},
			{
				Name:      "close",
				Usage:     "Close a period (one-way)",
				ArgsUsage: "<period-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, 0, "period-id")
					if err != nil {
						return err
					}
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.ClosePeriod(ctx, types.PeriodID(id))
				},
			},
		},
	}
}

func cmdIncidence() *cli.Command {
	var apiCfg config.API

	var (
		description string
		assignedTo  int
		severity    string
		images      []string
		comment     string
	)

	return &cli.Command{
		Name:  "incidence",
		Usage: "File, review and contest incidences",
		Flags: apiCfg.Flags(),
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "File an incidence against the open period",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "description",
						Usage:       "What happened",
						Required:    true,
						Destination: &description,
					},
					&cli.IntFlag{
						Name:        "assigned-to",
						Usage:       "User the incidence is filed against",
						Required:    true,
						Destination: &assignedTo,
					},
					&cli.StringFlag{
						Name:        "severity",
						Usage:       "Severity name from the catalog",
						Required:    true,
						Destination: &severity,
					},
					&cli.StringSliceFlag{
						Name:        "image",
						Usage:       "Evidentiary image file (repeatable)",
						Destination: &images,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}

					input := usecase.CreateIncidenceInput{
						Description: description,
						AssignedTo:  types.UserID(assignedTo),
						Severity:    severity,
					}
					var closers []*os.File
					defer func() {
						for _, f := range closers {
							_ = f.Close()
						}
					}()
					for _, path := range images {
						f, err := os.Open(path)
						if err != nil {
							return goerr.Wrap(err, "failed to open image", goerr.V("path", path))
						}
						closers = append(closers, f)
						input.Images = append(input.Images, usecase.ImageUpload{
							Filename: filepath.Base(path),
							File:     f,
						})
					}

					result, err := wf.CreateIncidence(ctx, input)
					if err != nil {
						return err
					}
					if len(result.FailedImages) > 0 {
						fmt.Fprintf(os.Stderr, "warning: %d image(s) failed to upload: %v\n",
							len(result.FailedImages), result.FailedImages)
					}
					return printJSON(result.Incidence)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one incidence",
				ArgsUsage: "<incidence-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, 0, "incidence-id")
					if err != nil {
						return err
					}
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					incidence, err := wf.GetIncidence(ctx, types.IncidenceID(id))
					if err != nil {
						return err
					}
					return printJSON(incidence)
				},
			},
			{
				Name:  "pending",
				Usage: "List your pending-review queue",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					incidences, err := wf.PendingReview(ctx)
					if err != nil {
						return err
					}
					return printJSON(incidences)
				},
			},
			{
				Name:      "confirm",
				Usage:     "Resolve a pending incidence as counting",
				ArgsUsage: "<incidence-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return resolveAction(ctx, c, &apiCfg, types.DispositionConfirm)
				},
			},
			{
				Name:      "annul",
				Usage:     "Resolve a pending incidence as excluded",
				ArgsUsage: "<incidence-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return resolveAction(ctx, c, &apiCfg, types.DispositionAnnul)
				},
			},
			{
				Name:      "contest",
				Usage:     "Add your one-time rebuttal comment",
				ArgsUsage: "<incidence-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "comment",
						Usage:       "Rebuttal text",
						Required:    true,
						Destination: &comment,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, 0, "incidence-id")
					if err != nil {
						return err
					}
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.Contest(ctx, types.IncidenceID(id), comment)
				},
			},
			{
				Name:      "delete",
				Usage:     "Permanently remove an incidence record",
				ArgsUsage: "<incidence-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, 0, "incidence-id")
					if err != nil {
						return err
					}
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.Delete(ctx, types.IncidenceID(id))
				},
			},
		},
	}
}

func resolveAction(ctx context.Context, c *cli.Command, apiCfg *config.API, disposition types.Disposition) error {
	id, err := argID(c, 0, "incidence-id")
	if err != nil {
		return err
	}
	wf, err := apiCfg.Workflow()
	if err != nil {
		return err
	}
	pending, err := wf.Resolve(ctx, types.IncidenceID(id), disposition)
	if err != nil {
		return err
	}
	return printJSON(pending)
}

func cmdCatalog() *cli.Command {
	var apiCfg config.API

	var (
		name     string
		value    float64
		text     string
		severity string
	)

	return &cli.Command{
		Name:  "catalog",
		Usage: "Manage severities and common incidence templates",
		Flags: apiCfg.Flags(),
		Commands: []*cli.Command{
			{
				Name:  "severities",
				Usage: "List severities",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					severities, err := wf.ListSeverities(ctx)
					if err != nil {
						return err
					}
					return printJSON(severities)
				},
			},
			{
				Name:  "add-severity",
				Usage: "Register a new severity",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "name",
						Usage:       "Severity name (unique)",
						Required:    true,
						Destination: &name,
					},
					&cli.FloatFlag{
						Name:        "value",
						Usage:       "Point deduction (positive)",
						Required:    true,
						Destination: &value,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.CreateSeverity(ctx, name, value)
				},
			},
			{
				Name:  "templates",
				Usage: "List common incidence templates",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					templates, err := wf.ListCommonIncidences(ctx)
					if err != nil {
						return err
					}
					return printJSON(templates)
				},
			},
			{
				Name:  "add-template",
				Usage: "Register a common incidence template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "text",
						Usage:       "Template description",
						Required:    true,
						Destination: &text,
					},
					&cli.StringFlag{
						Name:        "severity",
						Usage:       "Severity name the template maps to",
						Required:    true,
						Destination: &severity,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.CreateCommonIncidence(ctx, text, severity)
				},
			},
			{
				Name:      "update-template",
				Usage:     "Rewrite a common incidence template",
				ArgsUsage: "<template-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "text",
						Usage:       "Template description",
						Required:    true,
						Destination: &text,
					},
					&cli.StringFlag{
						Name:        "severity",
						Usage:       "Severity name the template maps to",
						Required:    true,
						Destination: &severity,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, 0, "template-id")
					if err != nil {
						return err
					}
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					return wf.UpdateCommonIncidence(ctx, types.CommonIncidenceID(id), text, severity)
				},
			},
			{
				Name:  "users",
				Usage: "List known users",
				Action: func(ctx context.Context, c *cli.Command) error {
					wf, err := apiCfg.Workflow()
					if err != nil {
						return err
					}
					users, err := wf.ListUsers(ctx)
					if err != nil {
						return err
					}
					return printJSON(users)
				},
			},
		},
	}
}

func cmdScore() *cli.Command {
	var (
		apiCfg   config.API
		userID   int
		periodID int
	)

	flags := joinFlags(
		apiCfg.Flags(),
		[]cli.Flag{
			&cli.IntFlag{
				Name:        "user",
				Usage:       "User ID",
				Required:    true,
				Destination: &userID,
			},
			&cli.IntFlag{
				Name:        "period",
				Usage:       "Period ID (defaults to the open period)",
				Destination: &periodID,
			},
		},
	)

	return &cli.Command{
		Name:  "score",
		Usage: "Read a user's score for a period",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			wf, err := apiCfg.Workflow()
			if err != nil {
				return err
			}

			pid := types.PeriodID(periodID)
			if pid == 0 {
				current, err := wf.CurrentPeriod(ctx)
				if err != nil {
					return err
				}
				pid = current.ID
			}

			score, found, err := wf.Score(ctx, types.UserID(userID), pid)
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("no score yet for user %d in period %d\n", userID, pid)
				return nil
			}
			fmt.Printf("%.2f\n", score)
			return nil
		},
	}
}

// argID parses a positive integer positional argument
func argID(c *cli.Command, index int, name string) (int, error) {
	raw := c.Args().Get(index)
	if raw == "" {
		return 0, goerr.New("missing argument", goerr.V("name", name))
	}
	var id int
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id <= 0 {
		return 0, goerr.New("invalid argument", goerr.V("name", name), goerr.V("value", raw))
	}
	return id, nil
}
