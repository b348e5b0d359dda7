package usecase_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	controller "github.com/conduct-lab/demerit/pkg/controller/http"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
	"github.com/conduct-lab/demerit/pkg/repository"
	"github.com/conduct-lab/demerit/pkg/service/apiclient"
	"github.com/conduct-lab/demerit/pkg/usecase"
)

// testEnv is a full client/server pairing: an httptest server over the
// memory store plus one workflow per seeded account
type testEnv struct {
	server *httptest.Server
	admin  *usecase.Workflow
	user   *usecase.Workflow
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemory()

	seed := &model.Seed{
		Users: []model.SeedUser{
			{Username: "boss", Email: "boss@example.com", Password: "admin-pass", Role: types.RoleAdmin},
			{Username: "worker", Email: "worker@example.com", Password: "user-pass", Role: types.RoleUser},
		},
		Severities: []model.Severity{
			{Name: "leve", Value: 5},
			{Name: "grave", Value: 20},
		},
	}
	gt.NoError(t, repository.Bootstrap(ctx, repo, seed)).Required()

	tokens, err := controller.NewTokenIssuer([]byte("workflow-test-secret"), time.Hour)
	gt.NoError(t, err).Required()
	httpServer := httptest.NewServer(controller.NewServer(ctx, "127.0.0.1:0", repo, tokens).Router())
	t.Cleanup(httpServer.Close)

	return &testEnv{
		server: httpServer,
		admin:  loginWorkflow(t, httpServer.URL, "boss@example.com", "admin-pass"),
		user:   loginWorkflow(t, httpServer.URL, "worker@example.com", "user-pass"),
	}
}

func loginWorkflow(t *testing.T, baseURL, email, password string) *usecase.Workflow {
	t.Helper()
	ctx := context.Background()

	api := apiclient.New(baseURL)
	result, err := api.Login(ctx, email, password)
	gt.NoError(t, err).Required()
	api.SetToken(result.Token)

	claims, err := model.ParseClaims(result.Token)
	gt.NoError(t, err).Required()

	wf, err := usecase.NewWorkflow(api, claims)
	gt.NoError(t, err).Required()
	return wf
}

func fileTestIncidence(t *testing.T, env *testEnv) *model.Incidence {
	t.Helper()
	result, err := env.admin.CreateIncidence(context.Background(), usecase.CreateIncidenceInput{
		Description: "late to shift",
		AssignedTo:  env.user.Actor().UserID,
		Severity:    "leve",
	})
	gt.NoError(t, err).Required()
	return result.Incidence
}

func TestWorkflow_PeriodManagement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("NoOpenPeriodAtStart", func(t *testing.T) {
		_, err := env.admin.CurrentPeriod(ctx)
		gt.True(t, errors.Is(err, model.ErrNoOpenPeriod))
	})

	t.Run("OpenAndResolve", func(t *testing.T) {
		opened, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()
		gt.True(t, opened.IsOpen)

		current, err := env.admin.CurrentPeriod(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, current.ID, opened.ID)
	})

	t.Run("SecondOpenFails", func(t *testing.T) {
		_, err := env.admin.OpenPeriod(ctx)
		gt.Error(t, err)
	})

	t.Run("UserCannotManage", func(t *testing.T) {
		_, err := env.user.OpenPeriod(ctx)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))

		current, err := env.admin.CurrentPeriod(ctx)
		gt.NoError(t, err).Required()
		err = env.user.ClosePeriod(ctx, current.ID)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})

	t.Run("CloseThenReopen", func(t *testing.T) {
		current, err := env.admin.CurrentPeriod(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, env.admin.ClosePeriod(ctx, current.ID))

		_, err = env.admin.CurrentPeriod(ctx)
		gt.True(t, errors.Is(err, model.ErrNoOpenPeriod))

		reopened, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()
		gt.True(t, reopened.ID != current.ID)
	})
}

func TestWorkflow_FileIncidence(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		result, err := env.admin.CreateIncidence(ctx, usecase.CreateIncidenceInput{
			Description: "late to shift",
			AssignedTo:  env.user.Actor().UserID,
			Severity:    "leve",
		})
		gt.NoError(t, err).Required()

		incidence := result.Incidence
		gt.Equal(t, incidence.State(), types.ReviewStatePending)
		gt.Equal(t, incidence.Value, 5.0)
		gt.Equal(t, incidence.AssignedTo.Username, "worker")
		gt.Equal(t, incidence.CreatedBy.Username, "boss")
		gt.Equal(t, len(result.FailedImages), 0)
	})

	t.Run("WithImages", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		result, err := env.admin.CreateIncidence(ctx, usecase.CreateIncidenceInput{
			Description: "damaged equipment",
			AssignedTo:  env.user.Actor().UserID,
			Severity:    "grave",
			Images: []usecase.ImageUpload{
				{Filename: "front.png", File: strings.NewReader("png-bytes-1")},
				{Filename: "back.png", File: strings.NewReader("png-bytes-2")},
			},
		})
		gt.NoError(t, err).Required()
		gt.Equal(t, len(result.FailedImages), 0)

		got, err := env.admin.GetIncidence(ctx, result.Incidence.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(got.Images), 2)
	})

	t.Run("UnknownSeverity", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		_, err = env.admin.CreateIncidence(ctx, usecase.CreateIncidenceInput{
			Description: "x",
			AssignedTo:  env.user.Actor().UserID,
			Severity:    "apocalyptic",
		})
		gt.True(t, errors.Is(err, model.ErrSeverityNotFound))
	})

	t.Run("NoOpenPeriod", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.CreateIncidence(ctx, usecase.CreateIncidenceInput{
			Description: "x",
			AssignedTo:  env.user.Actor().UserID,
			Severity:    "leve",
		})
		gt.True(t, errors.Is(err, model.ErrNoOpenPeriod))
	})

	t.Run("UserCannotFile", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		_, err = env.user.CreateIncidence(ctx, usecase.CreateIncidenceInput{
			Description: "x",
			AssignedTo:  env.admin.Actor().UserID,
			Severity:    "leve",
		})
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})
}

func TestWorkflow_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("ConfirmShrinksQueue", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		first := fileTestIncidence(t, env)
		second := fileTestIncidence(t, env)

		pending, err := env.admin.PendingReview(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(pending), 2)

		pending, err = env.admin.Resolve(ctx, first.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(pending), 1)
		gt.Equal(t, pending[0].ID, second.ID)

		got, err := env.admin.GetIncidence(ctx, first.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, got.State(), types.ReviewStateConfirmed)
	})

	t.Run("AnnulExcludesFromScore", func(t *testing.T) {
		env := newTestEnv(t)
		period, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		confirmed := fileTestIncidence(t, env)
		annulled := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, confirmed.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()
		_, err = env.admin.Resolve(ctx, annulled.ID, types.DispositionAnnul)
		gt.NoError(t, err).Required()

		got, err := env.admin.GetIncidence(ctx, annulled.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, got.State(), types.ReviewStateAnnulled)

		score, found, err := env.user.Score(ctx, env.user.Actor().UserID, period.ID)
		gt.NoError(t, err).Required()
		gt.True(t, found)
		gt.Equal(t, score, 95.0)
	})

	t.Run("SecondResolveFails", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()

		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionAnnul)
		gt.True(t, errors.Is(err, model.ErrAlreadyResolved))

		got, err := env.admin.GetIncidence(ctx, incidence.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, got.State(), types.ReviewStateConfirmed)
	})

	t.Run("UserCannotResolve", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()
		incidence := fileTestIncidence(t, env)

		_, err = env.user.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))

		_, err = env.user.PendingReview(ctx)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})
}

func TestWorkflow_Contest(t *testing.T) {
	ctx := context.Background()

	t.Run("OneShot", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()

		gt.NoError(t, env.user.Contest(ctx, incidence.ID, "the bus broke down"))

		got, err := env.user.GetIncidence(ctx, incidence.ID)
		gt.NoError(t, err).Required()
		gt.True(t, got.Comment != nil)
		gt.Equal(t, *got.Comment, "the bus broke down")

		err = env.user.Contest(ctx, incidence.ID, "and it rained")
		gt.True(t, errors.Is(err, model.ErrAlreadyCommented))
	})

	t.Run("PendingCannotBeContested", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()
		incidence := fileTestIncidence(t, env)

		err = env.user.Contest(ctx, incidence.ID, "too early")
		gt.True(t, errors.Is(err, model.ErrNotResolved))
	})

	t.Run("AnnulledCannotBeContested", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionAnnul)
		gt.NoError(t, err).Required()

		err = env.user.Contest(ctx, incidence.ID, "why bother")
		gt.True(t, errors.Is(err, model.ErrNotCounting))
	})

	t.Run("ClosedPeriodBlocksContest", func(t *testing.T) {
		env := newTestEnv(t)
		period, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()
		gt.NoError(t, env.admin.ClosePeriod(ctx, period.ID))

		err = env.user.Contest(ctx, incidence.ID, "too late")
		gt.True(t, errors.Is(err, model.ErrPeriodClosed))
	})

	t.Run("AdminCannotContest", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()

		err = env.admin.Contest(ctx, incidence.ID, "objection")
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})
}

func TestWorkflow_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("CountingRecord", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()

		gt.NoError(t, env.admin.Delete(ctx, incidence.ID))
		_, err = env.admin.GetIncidence(ctx, incidence.ID)
		gt.Error(t, err)
	})

	t.Run("AnnulledRecordRefused", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionAnnul)
		gt.NoError(t, err).Required()

		err = env.admin.Delete(ctx, incidence.ID)
		gt.True(t, errors.Is(err, model.ErrNotCounting))
	})

	t.Run("UserCannotDelete", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()
		incidence := fileTestIncidence(t, env)

		err = env.user.Delete(ctx, incidence.ID)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})
}

func TestWorkflow_Scores(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingRecordNormalizes", func(t *testing.T) {
		env := newTestEnv(t)
		period, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		score, found, err := env.user.Score(ctx, env.user.Actor().UserID, period.ID)
		gt.NoError(t, err).Required()
		gt.False(t, found)
		gt.Equal(t, score, 0.0)
	})

	t.Run("PerPeriodIsolation", func(t *testing.T) {
		env := newTestEnv(t)
		first, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		incidence := fileTestIncidence(t, env)
		_, err = env.admin.Resolve(ctx, incidence.ID, types.DispositionConfirm)
		gt.NoError(t, err).Required()

		gt.NoError(t, env.admin.ClosePeriod(ctx, first.ID))
		second, err := env.admin.OpenPeriod(ctx)
		gt.NoError(t, err).Required()

		score, found, err := env.user.Score(ctx, env.user.Actor().UserID, first.ID)
		gt.NoError(t, err).Required()
		gt.True(t, found)
		gt.Equal(t, score, 95.0)

		// The fresh period has no incidences and therefore no record
		_, found, err = env.user.Score(ctx, env.user.Actor().UserID, second.ID)
		gt.NoError(t, err).Required()
		gt.False(t, found)
	})
}

func TestWorkflow_Catalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("SeverityManagement", func(t *testing.T) {
		gt.NoError(t, env.admin.CreateSeverity(ctx, "critica", 50))

		severities, err := env.admin.ListSeverities(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(severities), 3)

		err = env.user.CreateSeverity(ctx, "na", 1)
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})

	t.Run("TemplateManagement", func(t *testing.T) {
		gt.NoError(t, env.admin.CreateCommonIncidence(ctx, "late to shift", "leve"))

		templates, err := env.user.ListCommonIncidences(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(templates), 1)

		gt.NoError(t, env.admin.UpdateCommonIncidence(ctx, templates[0].ID, "absent", "grave"))

		templates, err = env.user.ListCommonIncidences(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, templates[0].Incidence, "absent")
		gt.Equal(t, templates[0].Severity.Name, "grave")

		err = env.user.CreateCommonIncidence(ctx, "x", "leve")
		gt.True(t, errors.Is(err, model.ErrPermissionDenied))
	})

	t.Run("Users", func(t *testing.T) {
		users, err := env.admin.ListUsers(ctx)
		gt.NoError(t, err).Required()
		gt.Equal(t, len(users), 2)
	})
}

func TestNewWorkflow(t *testing.T) {
	api := apiclient.New("http://localhost:1")

	t.Run("NilClaims", func(t *testing.T) {
		_, err := usecase.NewWorkflow(api, nil)
		gt.True(t, errors.Is(err, model.ErrAuthRequired))
	})

	t.Run("BadClaims", func(t *testing.T) {
		_, err := usecase.NewWorkflow(api, &model.Claims{UserID: 0, Role: types.RoleUser})
		gt.Error(t, err)
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := usecase.NewWorkflow(nil, &model.Claims{UserID: 1, Username: "x", Role: types.RoleUser})
		gt.Error(t, err)
	})
}
