// internal/connectors/forum.go
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

const forumSearchLimit = 25

// ForumConnector searches a discussion forum and reports post volume and
// engagement. The client id/secret pair authenticates via basic auth.
type ForumConnector struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *commonhttp.Client
	limiter      *rate.Limiter
	logger       logger.Logger
}

func NewForum(cfg config.ForumConfig, timeout time.Duration, limiter *rate.Limiter, log logger.Logger) *ForumConnector {
	return &ForumConnector{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       commonhttp.NewClient(timeout),
		limiter:      limiter,
		logger:       log,
	}
}

func (c *ForumConnector) Source() models.Source {
	return models.SourceForum
}

func (c *ForumConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapFetchErr(models.SourceForum, err)
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), forumSearchLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wrapFetchErr(models.SourceForum, err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrapFetchErr(models.SourceForum, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapFetchErr(models.SourceForum,
			fmt.Errorf("search request failed (status %d): %s", resp.StatusCode, string(body)))
	}

	var payload struct {
		Posts []struct {
			Title    string `json:"title"`
			Upvotes  int    `json:"ups"`
			Comments int    `json:"num_comments"`
			URL      string `json:"url"`
		} `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, wrapFetchErr(models.SourceForum, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(payload.Posts) == 0 {
		return nil, nil
	}

	var comments, upvotes int
	topURL := payload.Posts[0].URL
	for _, p := range payload.Posts {
		comments += p.Comments
		upvotes += p.Upvotes
	}

	now := time.Now().UTC()
	return []models.RawSignal{
		{
			MetricType:  models.MetricVolume,
			Value:       float64(len(payload.Posts)),
			Unit:        "posts",
			URL:         topURL,
			CollectedAt: now,
		},
		{
			MetricType:  models.MetricEngagement,
			Value:       float64(comments),
			Unit:        "comments",
			URL:         topURL,
			CollectedAt: now,
		},
		{
			MetricType:  models.MetricEngagement,
			Value:       float64(upvotes) / float64(len(payload.Posts)),
			Unit:        "avg_upvotes",
			URL:         topURL,
			CollectedAt: now,
		},
	}, nil
}
