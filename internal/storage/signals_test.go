// internal/storage/signals_test.go
package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"demand-radar/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func signalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "topic_id", "source", "query", "metric_type", "value", "unit", "url", "collected_at",
	})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestStore_InsertSignals_Batch(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO demand_signals`).
		WithArgs(int64(4), "trends", "visa tracker", "volume", 42.0, "interest", "https://example.com/t", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`INSERT INTO demand_signals`).
		WithArgs(int64(4), "forum", "visa tracker", "engagement", 17.0, "comments", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectCommit()

	signals := []models.DemandSignal{
		{TopicID: 4, Source: models.SourceTrends, Query: "visa tracker", MetricType: models.MetricVolume, Value: 42, Unit: "interest", URL: "https://example.com/t"},
		{TopicID: 4, Source: models.SourceForum, Query: "visa tracker", MetricType: models.MetricEngagement, Value: 17, Unit: "comments"},
	}

	err := store.InsertSignals(context.Background(), signals)

	assert.NoError(t, err)
	assert.Equal(t, int64(100), signals[0].ID)
	assert.Equal(t, int64(101), signals[1].ID)
	assert.False(t, signals[0].CollectedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertSignals_EmptyIsNoOp(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	err := store.InsertSignals(context.Background(), nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListSignalsByTopic_WithFilters(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	collected := since.Add(6 * time.Hour)

	mock.ExpectQuery(`SELECT id, topic_id, source, query, metric_type, value, unit, url, collected_at`).
		WithArgs(int64(4), "trends", since).
		WillReturnRows(signalRows().
			AddRow(int64(1), int64(4), "trends", "visa tracker", "volume", 42.0, "interest", "", collected))

	signals, err := store.ListSignalsByTopic(context.Background(), 4, SignalFilter{
		Source: models.SourceTrends,
		Since:  &since,
	})

	assert.NoError(t, err)
	assert.Len(t, signals, 1)
	assert.Equal(t, models.SourceTrends, signals[0].Source)
	assert.Equal(t, models.MetricVolume, signals[0].MetricType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestSignals_OnePerSeries(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	collected := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`ROW_NUMBER\(\) OVER`).
		WithArgs(int64(4)).
		WillReturnRows(signalRows().
			AddRow(int64(9), int64(4), "forum", "visa tracker", "volume", 12.0, "posts", "", collected).
			AddRow(int64(7), int64(4), "trends", "visa tracker", "volume", 55.0, "interest", "", collected))

	signals, err := store.LatestSignals(context.Background(), 4)

	assert.NoError(t, err)
	assert.Len(t, signals, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Edge Cases
// ==========================

func TestStore_SignalStats_NoSignals(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(AVG\(value\), 0\)`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))
	mock.ExpectQuery(`SELECT DISTINCT source`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"source"}))
	mock.ExpectQuery(`SELECT collected_at`).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)

	stats, err := store.SignalStats(context.Background(), 4)

	assert.NoError(t, err)
	assert.Equal(t, 0, stats.SignalCount)
	assert.Empty(t, stats.Sources)
	assert.Nil(t, stats.LatestAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SignalStats_WithSignals(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	latest := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(AVG\(value\), 0\)`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(6, 88.5))
	mock.ExpectQuery(`SELECT DISTINCT source`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow("forum").AddRow("trends").AddRow("video"))
	mock.ExpectQuery(`SELECT collected_at`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"collected_at"}).AddRow(latest))

	stats, err := store.SignalStats(context.Background(), 4)

	assert.NoError(t, err)
	assert.Equal(t, 6, stats.SignalCount)
	assert.Equal(t, []string{"forum", "trends", "video"}, stats.Sources)
	assert.InDelta(t, 88.5, stats.AvgValue, 0.001)
	assert.Equal(t, latest, *stats.LatestAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}
