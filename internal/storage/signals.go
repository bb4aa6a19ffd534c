// internal/storage/signals.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

// InsertSignals stores a batch of collected signals in one transaction
func (s *Store) InsertSignals(ctx context.Context, signals []models.DemandSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewDatabaseError("insert signals", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range signals {
		if signals[i].CollectedAt.IsZero() {
			signals[i].CollectedAt = now
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO demand_signals (topic_id, source, query, metric_type, value, unit, url, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			signals[i].TopicID, string(signals[i].Source), signals[i].Query,
			string(signals[i].MetricType), signals[i].Value, signals[i].Unit,
			signals[i].URL, signals[i].CollectedAt,
		).Scan(&signals[i].ID)
		if err != nil {
			return commonerrors.NewDatabaseError("insert signals", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewDatabaseError("insert signals", err)
	}

	s.logger.Info("signals stored", map[string]interface{}{
		"count": len(signals),
	})
	return nil
}

// SignalFilter narrows signal listings
type SignalFilter struct {
	Source models.Source
	Since  *time.Time
}

// ListSignalsByTopic returns a topic's signals oldest first, for aggregation
func (s *Store) ListSignalsByTopic(ctx context.Context, topicID int64, filter SignalFilter) ([]models.DemandSignal, error) {
	query := `
		SELECT id, topic_id, source, query, metric_type, value, unit, url, collected_at
		FROM demand_signals
		WHERE topic_id = $1`
	args := []interface{}{topicID}

	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND collected_at >= $%d", len(args))
	}
	query += " ORDER BY collected_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list signals", err)
	}
	defer rows.Close()

	signals := []models.DemandSignal{}
	for rows.Next() {
		var sig models.DemandSignal
		var source, metricType string
		if err := rows.Scan(&sig.ID, &sig.TopicID, &source, &sig.Query, &metricType,
			&sig.Value, &sig.Unit, &sig.URL, &sig.CollectedAt); err != nil {
			return nil, commonerrors.NewDatabaseError("list signals", err)
		}
		sig.Source = models.Source(source)
		sig.MetricType = models.MetricType(metricType)
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("list signals", err)
	}
	return signals, nil
}

// LatestSignals returns the freshest observation of every signal series
// for a topic, where a series is (source, query, metric_type, unit).
func (s *Store) LatestSignals(ctx context.Context, topicID int64) ([]models.DemandSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic_id, source, query, metric_type, value, unit, url, collected_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY source, query, metric_type, unit
				ORDER BY collected_at DESC, id DESC
			) AS rn
			FROM demand_signals
			WHERE topic_id = $1
		) latest
		WHERE rn = 1
		ORDER BY source ASC, query ASC, metric_type ASC`, topicID)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("latest signals", err)
	}
	defer rows.Close()

	signals := []models.DemandSignal{}
	for rows.Next() {
		var sig models.DemandSignal
		var source, metricType string
		if err := rows.Scan(&sig.ID, &sig.TopicID, &source, &sig.Query, &metricType,
			&sig.Value, &sig.Unit, &sig.URL, &sig.CollectedAt); err != nil {
			return nil, commonerrors.NewDatabaseError("latest signals", err)
		}
		sig.Source = models.Source(source)
		sig.MetricType = models.MetricType(metricType)
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("latest signals", err)
	}
	return signals, nil
}

// SignalStats summarises a topic's signal coverage
func (s *Store) SignalStats(ctx context.Context, topicID int64) (*models.SignalStats, error) {
	var stats models.SignalStats

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(value), 0)
		FROM demand_signals
		WHERE topic_id = $1`, topicID,
	).Scan(&stats.SignalCount, &stats.AvgValue)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("signal stats", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT source
		FROM demand_signals
		WHERE topic_id = $1
		ORDER BY source`, topicID,
	)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("signal stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, commonerrors.NewDatabaseError("signal stats", err)
		}
		stats.Sources = append(stats.Sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("signal stats", err)
	}

	// Fetched as a plain column so SQLite keeps the timestamp type
	var latest time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT collected_at
		FROM demand_signals
		WHERE topic_id = $1
		ORDER BY collected_at DESC, id DESC
		LIMIT 1`, topicID,
	).Scan(&latest)
	if err == nil {
		stats.LatestAt = &latest
	} else if err != sql.ErrNoRows {
		return nil, commonerrors.NewDatabaseError("signal stats", err)
	}

	return &stats, nil
}
