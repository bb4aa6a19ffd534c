// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"demand-radar/internal/models"
)

// LoadCatalog reads a source catalog from disk and validates it against
// the closed source set. An empty path returns the built-in catalog.
func LoadCatalog(path string) (*SourceCatalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat SourceCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks that every descriptor names a known source and known
// metrics, that no source appears twice, and that the catalog covers the
// full set.
func (c *SourceCatalog) Validate() error {
	seen := map[models.Source]bool{}
	for _, d := range c.Sources {
		src, err := models.ParseSource(d.ID)
		if err != nil {
			return fmt.Errorf("catalog entry %q: %w", d.ID, err)
		}
		if seen[src] {
			return fmt.Errorf("catalog lists source %q twice", d.ID)
		}
		seen[src] = true
		for _, m := range d.Metrics {
			if _, err := models.ParseMetricType(m); err != nil {
				return fmt.Errorf("catalog entry %q: %w", d.ID, err)
			}
		}
	}
	for _, src := range models.AllSources() {
		if !seen[src] {
			return fmt.Errorf("catalog is missing source %q", src)
		}
	}
	return nil
}

// Find returns the descriptor for a source id, if present.
func (c *SourceCatalog) Find(id string) (SourceDescriptor, bool) {
	for _, d := range c.Sources {
		if d.ID == id {
			return d, true
		}
	}
	return SourceDescriptor{}, false
}

// Default returns the built-in catalog used when no file is configured.
func Default() *SourceCatalog {
	return &SourceCatalog{
		Version:     "1.0.0",
		LastUpdated: "2025-06-01",
		Sources: []SourceDescriptor{
			{
				ID:           string(models.SourceTrends),
				DisplayName:  "Search Trends",
				Description:  "Relative search interest over time for a query, plus its recent growth rate.",
				Metrics:      []string{string(models.MetricVolume), string(models.MetricGrowthRate)},
				MockFallback: true,
				RateLimit:    "provider dependent, cached per query",
				Tags:         []string{"search", "time-series"},
			},
			{
				ID:           string(models.SourceForum),
				DisplayName:  "Forum Discussions",
				Description:  "Post volume and engagement for a query across discussion forums.",
				Metrics:      []string{string(models.MetricVolume), string(models.MetricEngagement)},
				MockFallback: true,
				RateLimit:    "oauth client credentials, 60 requests/min",
				Tags:         []string{"community", "engagement"},
			},
			{
				ID:           string(models.SourceLinkAgg),
				DisplayName:  "Link Aggregator",
				Description:  "Story counts, points and comment activity for a query on link aggregation sites.",
				Metrics:      []string{string(models.MetricVolume), string(models.MetricEngagement), string(models.MetricCount)},
				MockFallback: true,
				RateLimit:    "public search API, best effort",
				Tags:         []string{"news", "tech"},
			},
			{
				ID:           string(models.SourceVideo),
				DisplayName:  "Video Platform",
				Description:  "Video counts and view engagement for a query on video platforms.",
				Metrics:      []string{string(models.MetricVolume), string(models.MetricEngagement)},
				MockFallback: true,
				RateLimit:    "api key quota, cached per query",
				Tags:         []string{"video", "engagement"},
			},
		},
	}
}
