// internal/connectors/linkagg.go
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"demand-radar/internal/common/config"
	commonhttp "demand-radar/internal/common/http"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"golang.org/x/time/rate"
)

// LinkAggConnector queries an Algolia-style story search API. It is the
// only live connector that needs no credential, so it doubles as the
// reference implementation. Besides the plain search it runs a "Show HN"
// probe whose hit count approximates how many competing products already
// announce themselves for the query.
type LinkAggConnector struct {
	baseURL string
	client  *commonhttp.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

type linkAggResult struct {
	Hits []struct {
		Title       string `json:"title"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		ObjectID    string `json:"objectID"`
		URL         string `json:"url"`
	} `json:"hits"`
	NbHits int `json:"nbHits"`
}

func NewLinkAgg(cfg config.LinkAggConfig, timeout time.Duration, limiter *rate.Limiter, log logger.Logger) *LinkAggConnector {
	return &LinkAggConnector{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  commonhttp.NewClient(timeout),
		limiter: limiter,
		logger:  log,
	}
}

func (c *LinkAggConnector) Source() models.Source {
	return models.SourceLinkAgg
}

func (c *LinkAggConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	result, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	searchURL := fmt.Sprintf("%s/search?query=%s&tags=story", c.baseURL, url.QueryEscape(query))

	signals := []models.RawSignal{{
		MetricType:  models.MetricVolume,
		Value:       float64(result.NbHits),
		Unit:        "stories",
		URL:         searchURL,
		CollectedAt: now,
	}}

	if len(result.Hits) > 0 {
		var comments, points int
		for _, h := range result.Hits {
			comments += h.NumComments
			points += h.Points
		}
		signals = append(signals,
			models.RawSignal{
				MetricType:  models.MetricEngagement,
				Value:       float64(comments),
				Unit:        "comments",
				URL:         searchURL,
				CollectedAt: now,
			},
			models.RawSignal{
				MetricType:  models.MetricEngagement,
				Value:       float64(points) / float64(len(result.Hits)),
				Unit:        "points",
				URL:         searchURL,
				CollectedAt: now,
			},
		)
	}

	// Competing-mention probe. A probe failure costs the competition proxy
	// its input but should not discard the signals already fetched.
	probe, err := c.search(ctx, "Show HN "+query)
	if err != nil {
		c.logger.Warn("competing-mention probe failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return signals, nil
	}
	signals = append(signals, models.RawSignal{
		MetricType:  models.MetricCount,
		Value:       float64(probe.NbHits),
		Unit:        "mentions",
		URL:         fmt.Sprintf("%s/search?query=%s&tags=story", c.baseURL, url.QueryEscape("Show HN "+query)),
		CollectedAt: now,
	})

	return signals, nil
}

func (c *LinkAggConnector) search(ctx context.Context, query string) (*linkAggResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapFetchErr(models.SourceLinkAgg, err)
	}

	reqURL := fmt.Sprintf("%s/search?query=%s&tags=story", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wrapFetchErr(models.SourceLinkAgg, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrapFetchErr(models.SourceLinkAgg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapFetchErr(models.SourceLinkAgg,
			fmt.Errorf("search request failed (status %d): %s", resp.StatusCode, string(body)))
	}

	var result linkAggResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, wrapFetchErr(models.SourceLinkAgg, fmt.Errorf("failed to decode response: %w", err))
	}
	return &result, nil
}
