// internal/scoring/rank.go
package scoring

import (
	"sort"

	"demand-radar/internal/models"
)

// RankedIdea is one idea with its freshly computed score and position.
type RankedIdea struct {
	Idea      models.BusinessIdea `json:"idea"`
	Total     float64             `json:"total"`
	Breakdown map[string]float64  `json:"breakdown"`
	Notes     map[string]string   `json:"notes,omitempty"`
	Rank      int                 `json:"rank"`
}

// Rank scores every idea and orders them by total descending. Ties go to
// the earlier-created idea (created_at, then id), so the order is
// deterministic regardless of input order. Ranks are 1-based and
// contiguous; tied ideas still get distinct sequential ranks, which keeps
// a rank usable as a list position. Persisting the outcome is the
// caller's job.
func (e *Engine) Rank(ideas []models.BusinessIdea, signalsByTopic map[int64][]models.DemandSignal, weights models.WeightConfig) ([]RankedIdea, error) {
	ranked := make([]RankedIdea, 0, len(ideas))
	for i := range ideas {
		result, err := e.Score(&ideas[i], signalsByTopic[ideas[i].TopicID], weights)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedIdea{
			Idea:      ideas[i],
			Total:     result.Total,
			Breakdown: result.Breakdown,
			Notes:     result.Notes,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if !a.Idea.CreatedAt.Equal(b.Idea.CreatedAt) {
			return a.Idea.CreatedAt.Before(b.Idea.CreatedAt)
		}
		return a.Idea.ID < b.Idea.ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// Assignments flattens a ranked list into the (idea, rank) pairs the
// storage layer persists.
func Assignments(ranked []RankedIdea) []models.RankAssignment {
	out := make([]models.RankAssignment, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, models.RankAssignment{IdeaID: r.Idea.ID, Rank: r.Rank})
	}
	return out
}
