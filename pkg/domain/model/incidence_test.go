package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

func testSeverity() model.Severity {
	return model.Severity{ID: 1, Name: "leve", Value: 5}
}

func testUsers() (assigned, creator model.UserRef) {
	assigned = model.UserRef{ID: 2, Username: "worker"}
	creator = model.UserRef{ID: 1, Username: "boss"}
	return
}

func openPeriod() model.Period {
	return model.Period{ID: 1, StartDate: time.Now(), IsOpen: true}
}

func newTestIncidence(t *testing.T) *model.Incidence {
	t.Helper()
	assigned, creator := testUsers()
	incidence, err := model.NewIncidence(1, "late to standup", testSeverity(), assigned, creator, openPeriod())
	gt.NoError(t, err).Required()
	return incidence
}

func TestNewIncidence(t *testing.T) {
	incidence := newTestIncidence(t)

	gt.Equal(t, incidence.State(), types.ReviewStatePending)
	gt.True(t, incidence.Status)
	gt.True(t, incidence.Valid)
	gt.Equal(t, incidence.Value, 5.0)
	gt.True(t, incidence.Comment == nil)
}

func TestNewIncidence_Validation(t *testing.T) {
	assigned, creator := testUsers()
	period := openPeriod()

	t.Run("EmptyDescription", func(t *testing.T) {
		_, err := model.NewIncidence(1, "", testSeverity(), assigned, creator, period)
		gt.Error(t, err)
	})

	t.Run("BadSeverity", func(t *testing.T) {
		bad := model.Severity{Name: "free", Value: 0}
		_, err := model.NewIncidence(1, "x", bad, assigned, creator, period)
		gt.Error(t, err)
	})

	t.Run("ClosedPeriod", func(t *testing.T) {
		closed := period
		closed.IsOpen = false
		_, err := model.NewIncidence(1, "x", testSeverity(), assigned, creator, closed)
		gt.True(t, errors.Is(err, model.ErrPeriodClosed))
	})
}

func TestIncidence_SeveritySnapshot(t *testing.T) {
	severity := testSeverity()
	assigned, creator := testUsers()
	incidence, err := model.NewIncidence(1, "x", severity, assigned, creator, openPeriod())
	gt.NoError(t, err).Required()

	// Catalog edits after creation must not move the recorded value
	severity.Value = 50
	gt.Equal(t, incidence.Value, 5.0)
}

func TestIncidence_Resolve(t *testing.T) {
	t.Run("Confirm", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.Equal(t, incidence.State(), types.ReviewStateConfirmed)
		gt.False(t, incidence.Status)
		gt.True(t, incidence.Valid)
	})

	t.Run("Annul", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionAnnul))
		gt.Equal(t, incidence.State(), types.ReviewStateAnnulled)
		gt.False(t, incidence.Status)
		gt.False(t, incidence.Valid)
	})

	t.Run("SecondResolveFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))

		err := incidence.Resolve(types.DispositionAnnul)
		gt.True(t, errors.Is(err, model.ErrAlreadyResolved))
		// The failed attempt must not move the state
		gt.Equal(t, incidence.State(), types.ReviewStateConfirmed)
	})

	t.Run("InvalidDisposition", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.Error(t, incidence.Resolve(types.Disposition("revert")))
		gt.Equal(t, incidence.State(), types.ReviewStatePending)
	})
}

func TestIncidence_Contest(t *testing.T) {
	t.Run("ConfirmedAndOpen", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.NoError(t, incidence.Contest("the meeting ran over"))

		gt.True(t, incidence.Comment != nil)
		gt.Equal(t, *incidence.Comment, "the meeting ran over")
		// Contesting never moves the disposition
		gt.Equal(t, incidence.State(), types.ReviewStateConfirmed)
	})

	t.Run("PendingFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		err := incidence.Contest("too early")
		gt.True(t, errors.Is(err, model.ErrNotResolved))
		gt.True(t, incidence.Comment == nil)
	})

	t.Run("AnnulledFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionAnnul))
		err := incidence.Contest("why bother")
		gt.True(t, errors.Is(err, model.ErrNotCounting))
	})

	t.Run("SecondCommentFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.NoError(t, incidence.Contest("first"))

		err := incidence.Contest("second")
		gt.True(t, errors.Is(err, model.ErrAlreadyCommented))
		gt.Equal(t, *incidence.Comment, "first")
	})

	t.Run("ClosedPeriodFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.NoError(t, incidence.Period.Close(time.Now()))

		err := incidence.Contest("too late")
		gt.True(t, errors.Is(err, model.ErrPeriodClosed))
		gt.True(t, incidence.Comment == nil)
	})

	t.Run("EmptyCommentFails", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.Error(t, incidence.Contest(""))
	})
}

func TestIncidence_CanDelete(t *testing.T) {
	t.Run("CountingRecord", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionConfirm))
		gt.NoError(t, incidence.CanDelete())
	})

	t.Run("PendingRecord", func(t *testing.T) {
		// Pending incidences still carry valid=true and pass the gate
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.CanDelete())
	})

	t.Run("AnnulledRecord", func(t *testing.T) {
		incidence := newTestIncidence(t)
		gt.NoError(t, incidence.Resolve(types.DispositionAnnul))
		err := incidence.CanDelete()
		gt.True(t, errors.Is(err, model.ErrNotCounting))
	})
}
