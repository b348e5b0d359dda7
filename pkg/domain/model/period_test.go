package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

func TestNewPeriod(t *testing.T) {
	period, err := model.NewPeriod(1)
	gt.NoError(t, err).Required()
	gt.True(t, period.IsOpen)
	gt.True(t, period.EndDate == nil)

	_, err = model.NewPeriod(0)
	gt.Error(t, err)
}

func TestPeriod_Close(t *testing.T) {
	period, err := model.NewPeriod(1)
	gt.NoError(t, err).Required()

	end := time.Now()
	gt.NoError(t, period.Close(end))
	gt.False(t, period.IsOpen)
	gt.True(t, period.EndDate != nil)
	gt.Equal(t, *period.EndDate, end)

	// Closing is one-way
	err = period.Close(time.Now())
	gt.True(t, errors.Is(err, model.ErrPeriodClosed))
}

func TestCurrentPeriod(t *testing.T) {
	closed1 := &model.Period{ID: 1, StartDate: time.Now().Add(-48 * time.Hour)}
	closed2 := &model.Period{ID: 2, StartDate: time.Now().Add(-24 * time.Hour)}
	open := &model.Period{ID: 3, StartDate: time.Now(), IsOpen: true}

	t.Run("FindsOpen", func(t *testing.T) {
		current, err := model.CurrentPeriod([]*model.Period{closed1, closed2, open})
		gt.NoError(t, err).Required()
		gt.Equal(t, current.ID, types.PeriodID(3))
	})

	t.Run("NoneOpen", func(t *testing.T) {
		_, err := model.CurrentPeriod([]*model.Period{closed1, closed2})
		gt.True(t, errors.Is(err, model.ErrNoOpenPeriod))
	})

	t.Run("EmptyRegistry", func(t *testing.T) {
		_, err := model.CurrentPeriod(nil)
		gt.True(t, errors.Is(err, model.ErrNoOpenPeriod))
	})
}

func TestScoreForPeriod(t *testing.T) {
	scores := []*model.UserScore{
		{ID: 1, Score: 95, Period: model.Period{ID: 1}},
		{ID: 2, Score: 80, Period: model.Period{ID: 2}},
	}

	score, found := model.ScoreForPeriod(scores, 2)
	gt.True(t, found)
	gt.Equal(t, score, 80.0)

	// A missing pairing normalizes to 0 and stays distinguishable
	// from an actual zero through the found flag
	score, found = model.ScoreForPeriod(scores, 9)
	gt.False(t, found)
	gt.Equal(t, score, 0.0)
}
