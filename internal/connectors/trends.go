// internal/connectors/trends.go
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

// TrendsConnector reads an interest-over-time series for a query and turns
// it into volume and growth signals.
type TrendsConnector struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewTrends(cfg config.TrendsConfig, timeout time.Duration, limiter *rate.Limiter, log logger.Logger) *TrendsConnector {
	return &TrendsConnector{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  commonhttp.NewClient(timeout),
		limiter: limiter,
		logger:  log,
	}
}

func (c *TrendsConnector) Source() models.Source {
	return models.SourceTrends
}

func (c *TrendsConnector) Fetch(ctx context.Context, query string) ([]models.RawSignal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapFetchErr(models.SourceTrends, err)
	}

	reqURL := fmt.Sprintf("%s/interest?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wrapFetchErr(models.SourceTrends, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrapFetchErr(models.SourceTrends, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapFetchErr(models.SourceTrends,
			fmt.Errorf("interest request failed (status %d): %s", resp.StatusCode, string(body)))
	}

	var payload struct {
		Interest []float64 `json:"interest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, wrapFetchErr(models.SourceTrends, fmt.Errorf("failed to decode response: %w", err))
	}

	pageURL := fmt.Sprintf("%s/explore?q=%s", c.baseURL, url.QueryEscape(query))
	return trendsSignals(payload.Interest, pageURL, time.Now().UTC()), nil
}

// trendsSignals maps an interest series onto the metric classes: mean
// interest and peak as volume, and the percent change of the second half
// of the series against the first as growth rate.
func trendsSignals(series []float64, pageURL string, now time.Time) []models.RawSignal {
	if len(series) == 0 {
		return nil
	}

	var sum, peak float64
	for _, v := range series {
		sum += v
		if v > peak {
			peak = v
		}
	}

	signals := []models.RawSignal{
		{
			MetricType:  models.MetricVolume,
			Value:       sum / float64(len(series)),
			Unit:        "interest",
			URL:         pageURL,
			CollectedAt: now,
		},
		{
			MetricType:  models.MetricVolume,
			Value:       peak,
			Unit:        "peak_interest",
			URL:         pageURL,
			CollectedAt: now,
		},
	}

	if len(series) >= 2 {
		firstHalf := series[:len(series)/2]
		secondHalf := series[len(series)/2:]
		firstMean := mean(firstHalf)
		secondMean := mean(secondHalf)

		var growth float64
		if firstMean > 0 {
			growth = (secondMean - firstMean) / firstMean * 100
		}
		signals = append(signals, models.RawSignal{
			MetricType:  models.MetricGrowthRate,
			Value:       growth,
			Unit:        "percent",
			URL:         pageURL,
			CollectedAt: now,
		})
	}

	return signals
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
