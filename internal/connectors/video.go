// internal/connectors/video.go
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

// VideoConnector searches a video platform and reports how much content
// and viewership a query attracts.
type VideoConnector struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewVideo(cfg config.VideoConfig, timeout time.Duration, limiter *rate.Limiter, log logger.Logger) *VideoConnector {
	return &VideoConnector{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  commonhttp.NewClient(timeout),
		limiter: limiter,
		logger:  log,
	}
}

func (c *VideoConnector) Source() models.Source {
	return models.SourceVideo
}

func (c *VideoConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapFetchErr(models.SourceVideo, err)
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&key=%s", c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wrapFetchErr(models.SourceVideo, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrapFetchErr(models.SourceVideo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapFetchErr(models.SourceVideo,
			fmt.Errorf("search request failed (status %d): %s", resp.StatusCode, string(body)))
	}

	var payload struct {
		TotalResults int `json:"totalResults"`
		Videos       []struct {
			Title string `json:"title"`
			Views int64  `json:"views"`
			URL   string `json:"url"`
		} `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, wrapFetchErr(models.SourceVideo, fmt.Errorf("failed to decode response: %w", err))
	}

	now := time.Now().UTC()
	searchURL := fmt.Sprintf("%s/results?q=%s", c.baseURL, url.QueryEscape(query))

	signals := []models.RawSignal{{
		MetricType:  models.MetricVolume,
		Value:       float64(payload.TotalResults),
		Unit:        "videos",
		URL:         searchURL,
		CollectedAt: now,
	}}

	if len(payload.Videos) > 0 {
		var views int64
		topURL := payload.Videos[0].URL
		for _, v := range payload.Videos {
			views += v.Views
		}
		signals = append(signals,
			models.RawSignal{
				MetricType:  models.MetricEngagement,
				Value:       float64(views),
				Unit:        "views",
				URL:         topURL,
				CollectedAt: now,
			},
			models.RawSignal{
				MetricType:  models.MetricEngagement,
				Value:       float64(views) / float64(len(payload.Videos)),
				Unit:        "avg_views",
				URL:         topURL,
				CollectedAt: now,
			},
		)
	}

	return signals, nil
}
