// internal/collector/collector.go
package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"demand-radar/internal/common/config"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/common/metrics"
	"demand-radar/internal/common/observability"
	"demand-radar/internal/connectors"
	"demand-radar/internal/models"
	"demand-radar/internal/storage"

	"github.com/google/uuid"
)

// Registry provides the connectors a run fans out over.
type Registry interface {
	All() []connectors.Connector
}

// Collector fans one topic's queries out across the four connectors and
// persists whatever comes back. A failing connector loses its own signals
// and nothing else: the run always completes, reporting failures per
// source instead of aborting.
type Collector struct {
	store          *storage.Store
	registry       Registry
	obs            *observability.Observability
	logger         logger.Logger
	maxQueries     int
	maxConcurrency int
}

// SourceResult tallies one source's outcome within a run.
type SourceResult struct {
	Signals  int      `json:"signals"`
	Failures int      `json:"failures"`
	Errors   []string `json:"errors,omitempty"`
}

// CollectionResult reports one collection run.
type CollectionResult struct {
	RunID      string                          `json:"runId"`
	TopicID    int64                           `json:"topicId"`
	Queries    []string                        `json:"queries"`
	Collected  int                             `json:"collected"`
	BySource   map[models.Source]*SourceResult `json:"bySource"`
	DurationMS int64                           `json:"durationMs"`
}

func New(store *storage.Store, registry Registry, cfg config.CollectorConfig, obs *observability.Observability, log logger.Logger) *Collector {
	maxQueries := cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = 25
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Collector{
		store:          store,
		registry:       registry,
		obs:            obs,
		logger:         log.WithFields(map[string]interface{}{"component": "collector"}),
		maxQueries:     maxQueries,
		maxConcurrency: maxConcurrency,
	}
}

// Collect runs every connector against every query for the topic and
// appends the resulting signals to its history. The topic must exist;
// with no queries given the topic name is used. Signals from sources that
// succeeded are persisted even when others fail.
func (c *Collector) Collect(ctx context.Context, topicID int64, queries []string) (*CollectionResult, error) {
	topic, err := c.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	queries = normalizeQueries(queries, c.maxQueries)
	if len(queries) == 0 {
		queries = []string{topic.Name}
	}

	runID := uuid.New().String()
	log := c.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"topic_id": topicID,
	})
	start := time.Now()

	ctx, span := c.obs.StartSpan(ctx, "signal collection")
	defer span.End()

	result := &CollectionResult{
		RunID:    runID,
		TopicID:  topicID,
		Queries:  queries,
		BySource: make(map[models.Source]*SourceResult, 4),
	}
	all := c.registry.All()
	for _, connector := range all {
		result.BySource[connector.Source()] = &SourceResult{}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []models.DemandSignal
	)
	sem := make(chan struct{}, c.maxConcurrency)

	for _, connector := range all {
		for _, query := range queries {
			wg.Add(1)
			go func(connector connectors.Connector, query string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				source := connector.Source()
				metrics.CollectionRunsActive.WithLabelValues(string(source)).Inc()
				defer metrics.CollectionRunsActive.WithLabelValues(string(source)).Dec()

				fetchStart := time.Now()
				raws, err := connector.Fetch(ctx, query)
				metrics.ConnectorRequestDuration.WithLabelValues(string(source)).Observe(time.Since(fetchStart).Seconds())

				mu.Lock()
				defer mu.Unlock()

				outcome := result.BySource[source]
				if err != nil {
					outcome.Failures++
					outcome.Errors = append(outcome.Errors, err.Error())
					code := string(commonerrors.AsStandardError(err).Code)
					metrics.ConnectorFailures.WithLabelValues(string(source), code).Inc()
					log.WithError(err).Warn("connector fetch failed", map[string]interface{}{
						"source": string(source),
						"query":  query,
					})
					return
				}

				for _, raw := range raws {
					collected = append(collected, models.DemandSignal{
						TopicID:     topicID,
						Source:      source,
						Query:       query,
						MetricType:  raw.MetricType,
						Value:       raw.Value,
						Unit:        raw.Unit,
						URL:         raw.URL,
						CollectedAt: raw.CollectedAt,
					})
				}
				outcome.Signals += len(raws)
				metrics.SignalsCollected.WithLabelValues(string(source), "ok").Add(float64(len(raws)))
			}(connector, query)
		}
	}
	wg.Wait()

	if len(collected) > 0 {
		if err := c.store.InsertSignals(ctx, collected); err != nil {
			c.obs.RecordRunProcessed(ctx, "collect", "error")
			return nil, err
		}
	}
	result.Collected = len(collected)
	result.DurationMS = time.Since(start).Milliseconds()

	status := "ok"
	for _, outcome := range result.BySource {
		if outcome.Failures > 0 {
			status = "partial"
			break
		}
	}
	c.obs.RecordRunProcessed(ctx, "collect", status)
	c.obs.RecordRunDuration(ctx, time.Since(start), "collect", status)

	log.Info("collection run finished", map[string]interface{}{
		"queries":     len(queries),
		"collected":   result.Collected,
		"duration_ms": result.DurationMS,
	})
	return result, nil
}

// Stats summarizes the topic's accumulated signal history.
func (c *Collector) Stats(ctx context.Context, topicID int64) (*models.SignalStats, error) {
	if _, err := c.store.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return c.store.SignalStats(ctx, topicID)
}

// normalizeQueries trims, drops blanks, dedups case-insensitively, and
// caps the list.
func normalizeQueries(queries []string, max int) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) == max {
			break
		}
	}
	return out
}
