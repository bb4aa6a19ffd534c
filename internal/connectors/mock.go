// internal/connectors/mock.go
package connectors

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"time"

	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
)

// MockConnector stands in for a live source when no credential is
// configured or mock mode is forced. Output is deterministic per
// (source, query) and mirrors the metric shape of the live connector it
// replaces, so scoring exercises the same dimensions in both modes. Mock
// URLs always point at example.com.
type MockConnector struct {
	source models.Source
	logger logger.Logger
}

func NewMock(source models.Source, log logger.Logger) *MockConnector {
	return &MockConnector{source: source, logger: log}
}

func (m *MockConnector) Source() models.Source {
	return m.source
}

func (m *MockConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := mockSignals(m.source, query, time.Now().UTC())
	m.logger.Debug("generated synthetic signals", map[string]interface{}{
		"source":  string(m.source),
		"query":   query,
		"signals": len(signals),
	})
	return signals, nil
}

// mockSignals derives every value from a hash of (source, query). The
// shapes match the live connectors: trends reports interest and growth,
// forum and video report volume and engagement, and the link aggregator
// adds the competing-mention count.
func mockSignals(source models.Source, query string, now time.Time) []models.RawSignal {
	seed := mockSeed(source, query)
	base := float64(seed%900) + 100
	pageURL := fmt.Sprintf("https://example.com/mock/%s?q=%s", source, url.QueryEscape(query))

	signal := func(metric models.MetricType, value float64, unit string) models.RawSignal {
		return models.RawSignal{
			MetricType:  metric,
			Value:       value,
			Unit:        unit,
			URL:         pageURL,
			CollectedAt: now,
		}
	}

	switch source {
	case models.SourceTrends:
		return []models.RawSignal{
			signal(models.MetricVolume, base/10, "interest"),
			signal(models.MetricVolume, base/10*1.5, "peak_interest"),
			signal(models.MetricGrowthRate, float64(seed%61)-20, "percent"),
		}
	case models.SourceForum:
		return []models.RawSignal{
			signal(models.MetricVolume, float64(seed%forumSearchLimit)+1, "posts"),
			signal(models.MetricEngagement, base*3, "comments"),
			signal(models.MetricEngagement, float64(seed%40)+5, "avg_upvotes"),
		}
	case models.SourceLinkAgg:
		return []models.RawSignal{
			signal(models.MetricVolume, base*2, "stories"),
			signal(models.MetricEngagement, base*4, "comments"),
			signal(models.MetricEngagement, float64(seed%120)+10, "points"),
			signal(models.MetricCount, float64(seed%8), "mentions"),
		}
	default:
		return []models.RawSignal{
			signal(models.MetricVolume, base*10, "videos"),
			signal(models.MetricEngagement, base*500, "views"),
			signal(models.MetricEngagement, base*25, "avg_views"),
		}
	}
}

func mockSeed(source models.Source, query string) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%s", source, query)
	return h.Sum32()
}
