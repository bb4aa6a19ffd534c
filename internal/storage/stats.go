// internal/storage/stats.go
package storage

import (
	"context"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

// Overview returns pipeline-wide counts for the report and health endpoints
func (s *Store) Overview(ctx context.Context) (*models.PipelineStats, error) {
	var stats models.PipelineStats

	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM conversations`, &stats.Conversations},
		{`SELECT COUNT(*) FROM topics`, &stats.Topics},
		{`SELECT COUNT(*) FROM demand_signals`, &stats.Signals},
		{`SELECT COUNT(*) FROM business_ideas`, &stats.Ideas},
		{`SELECT COUNT(*) FROM business_ideas WHERE total_score IS NOT NULL`, &stats.ScoredIdeas},
		{`SELECT COUNT(*) FROM business_ideas WHERE rank IS NOT NULL`, &stats.RankedIdeas},
		{`SELECT COUNT(*) FROM evidence_links`, &stats.EvidenceLinks},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, commonerrors.NewDatabaseError("pipeline stats", err)
		}
	}

	return &stats, nil
}
