package model

import "github.com/conduct-lab/demerit/pkg/domain/types"

// UserScore is the externally computed per-period score projection for a
// user. The client only ever reads it; the scoring service derives it
// from confirmed incidences.
type UserScore struct {
	ID     int     `json:"id"`
	Score  float64 `json:"score"`
	User   UserRef `json:"user"`
	Period Period  `json:"period"`
}

// ScoreForPeriod looks up the score for a period in a user's score
// listing. A missing pairing normalizes to 0 with found=false so callers
// can keep "no score yet" distinguishable from an actual zero.
func ScoreForPeriod(scores []*UserScore, periodID types.PeriodID) (float64, bool) {
	for _, s := range scores {
		if s.Period.ID == periodID {
			return s.Score, true
		}
	}
	return 0, false
}
