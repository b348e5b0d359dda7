package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Score reads the externally computed score for a (user, period)
// pairing. A missing record normalizes to 0 with found=false; the
// client holds no cache invalidation channel from the scoring service,
// so callers re-query after every action that could move the score.
func (w *Workflow) Score(ctx context.Context, userID types.UserID, periodID types.PeriodID) (float64, bool, error) {
	if err := userID.Validate(); err != nil {
		return 0, false, goerr.Wrap(err, "invalid user ID")
	}
	if err := periodID.Validate(); err != nil {
		return 0, false, goerr.Wrap(err, "invalid period ID")
	}

	scores, err := w.api.ListUserScores(ctx, userID)
	if err != nil {
		return 0, false, goerr.Wrap(err, "failed to list user scores")
	}

	score, found := model.ScoreForPeriod(scores, periodID)
	return score, found, nil
}

// ListScores lists every per-period score record for a user
func (w *Workflow) ListScores(ctx context.Context, userID types.UserID) ([]*model.UserScore, error) {
	if err := userID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user ID")
	}
	return w.api.ListUserScores(ctx, userID)
}
