package stats

import (
	"context"

	"github.com/venh/typeclash/internal/model"
	"github.com/venh/typeclash/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Battles      []model.SessionResult
	Overall      Summary
	ByDifficulty map[model.Difficulty]Summary
}

// BuildReport loads and prepares battle data for rendering. Last
// limits the report to the most recent battles when positive.
func BuildReport(ctx context.Context, st *store.Store, f store.Filter, last int) (Report, error) {
	battles, err := st.ListBattles(ctx, f)
	if err != nil {
		return Report{}, err
	}
	if last > 0 && len(battles) > last {
		battles = battles[len(battles)-last:]
	}

	byDifficulty := map[model.Difficulty]Summary{}
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyNormal, model.DifficultyHard} {
		var subset []model.SessionResult
		for _, b := range battles {
			if b.Difficulty == d {
				subset = append(subset, b)
			}
		}
		if len(subset) > 0 {
			byDifficulty[d] = Summarize(subset)
		}
	}

	return Report{
		Battles:      battles,
		Overall:      Summarize(battles),
		ByDifficulty: byDifficulty,
	}, nil
}
