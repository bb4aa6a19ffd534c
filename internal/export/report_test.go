// internal/export/report_test.go
package export

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/storage"
)

func newTestExporter(t *testing.T) (*Exporter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.New(db, storage.DriverPostgres, logger.NewTestLogger(t))
	return NewExporter(store, logger.NewTestLogger(t)), mock
}

func expectTopicLookup(mock sqlmock.Sqlmock, id int64, name string) {
	mock.ExpectQuery(`SELECT (.+) FROM topics WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "name", "description", "keywords", "message_count", "created_at",
		}).AddRow(id, int64(1), name, "Mentioned in 3 of 5 messages",
			`["invoice","billing"]`, 3, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func ideaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "topic_id", "title", "target_user", "value_prop", "why_now", "pricing_model",
		"distribution_channel", "moat", "ops_burden_estimate", "compliance_risks",
		"total_score", "score_breakdown", "rank", "created_at",
	})
}

func evidenceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "idea_id", "url", "title", "snippet", "source", "relevance_score", "created_at",
	})
}

const breakdownJSON = `{"demand_strength":80,"demand_velocity":70,"competition_proxy":65,` +
	`"feasibility":75,"automation_friendly":60,"monetization_clarity":50}`

// ==========================
// Report Rendering Tests
// ==========================

func TestTopicReport_BuildsWorkbook(t *testing.T) {
	exp, mock := newTestExporter(t)
	created := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	expectTopicLookup(mock, 4, "payments")
	mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE topic_id`).
		WithArgs(int64(4), 100, 0).
		WillReturnRows(ideaRows().
			AddRow(int64(7), int64(4), "Invoice chase-up assistant", "freelancers",
				"automatic reminders", "", "subscription", "", "", "low", "",
				61.5, breakdownJSON, 2, created).
			AddRow(int64(9), int64(4), "Deposit reconciliation digest", "cafe owners",
				"daily payout matching", "", "subscription", "", "", "low", "",
				72.5, breakdownJSON, 1, created))
	mock.ExpectQuery(`SELECT (.+) FROM evidence_links WHERE idea_id`).
		WithArgs(int64(9), 50).
		WillReturnRows(evidenceRows().
			AddRow(int64(31), int64(9), "https://example.com/thread/1", "Payout matching pain",
				"Nobody reconciles this by hand anymore", "forum", 0.9, created))
	mock.ExpectQuery(`SELECT (.+) FROM evidence_links WHERE idea_id`).
		WithArgs(int64(7), 50).
		WillReturnRows(evidenceRows())

	report, err := exp.TopicReport(context.Background(), 4)
	assert.NoError(t, err)
	assert.Equal(t, "topic-4-payments.xlsx", report.Filename)
	assert.NoError(t, mock.ExpectationsWereMet())

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	assert.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Ranked Ideas", "Evidence"}, f.GetSheetList())

	// Header row carries the six dimension columns after Total Score.
	for cell, want := range map[string]string{
		"A1": "Rank",
		"B1": "Title",
		"F1": "Total Score",
		"G1": "Demand Strength",
		"H1": "Demand Velocity",
		"I1": "Competition Proxy",
		"J1": "Feasibility",
		"K1": "Automation Friendly",
		"L1": "Monetization Clarity",
	} {
		got, err := f.GetCellValue("Ranked Ideas", cell)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "cell %s", cell)
	}

	// Rank 1 idea comes first even though the store returned it second.
	for cell, want := range map[string]string{
		"A2": "1",
		"B2": "Deposit reconciliation digest",
		"C2": "cafe owners",
		"F2": "72.5",
		"G2": "80",
		"L2": "50",
		"A3": "2",
		"B3": "Invoice chase-up assistant",
	} {
		got, err := f.GetCellValue("Ranked Ideas", cell)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "cell %s", cell)
	}

	for cell, want := range map[string]string{
		"A1": "Idea ID",
		"A2": "9",
		"B2": "Deposit reconciliation digest",
		"C2": "Payout matching pain",
		"D2": "https://example.com/thread/1",
		"E2": "forum",
		"F2": "0.9",
	} {
		got, err := f.GetCellValue("Evidence", cell)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "cell %s", cell)
	}
}

func TestTopicReport_UnscoredIdeasTrail(t *testing.T) {
	exp, mock := newTestExporter(t)
	created := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	expectTopicLookup(mock, 4, "payments")
	mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE topic_id`).
		WithArgs(int64(4), 100, 0).
		WillReturnRows(ideaRows().
			AddRow(int64(3), int64(4), "Unscored draft", "", "", "", "", "", "", "low", "",
				nil, nil, nil, created).
			AddRow(int64(5), int64(4), "Ranked idea", "", "", "", "", "", "", "low", "",
				72.5, breakdownJSON, 1, created))
	mock.ExpectQuery(`SELECT (.+) FROM evidence_links WHERE idea_id`).
		WithArgs(int64(5), 50).
		WillReturnRows(evidenceRows())
	mock.ExpectQuery(`SELECT (.+) FROM evidence_links WHERE idea_id`).
		WithArgs(int64(3), 50).
		WillReturnRows(evidenceRows())

	report, err := exp.TopicReport(context.Background(), 4)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	assert.NoError(t, err)
	defer f.Close()

	b2, _ := f.GetCellValue("Ranked Ideas", "B2")
	b3, _ := f.GetCellValue("Ranked Ideas", "B3")
	assert.Equal(t, "Ranked idea", b2)
	assert.Equal(t, "Unscored draft", b3)

	// Unscored rows leave rank, total and dimensions blank.
	a3, _ := f.GetCellValue("Ranked Ideas", "A3")
	f3, _ := f.GetCellValue("Ranked Ideas", "F3")
	g3, _ := f.GetCellValue("Ranked Ideas", "G3")
	assert.Equal(t, "", a3)
	assert.Equal(t, "", f3)
	assert.Equal(t, "", g3)
}

func TestTopicReport_UnknownTopic(t *testing.T) {
	exp, mock := newTestExporter(t)

	mock.ExpectQuery(`SELECT (.+) FROM topics WHERE id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := exp.TopicReport(context.Background(), 99)
	assert.True(t, commonerrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Helper Tests
// ==========================

func TestSlug(t *testing.T) {
	assert.Equal(t, "payments", slug("payments"))
	assert.Equal(t, "back-office-ops", slug("  Back Office / Ops "))
	assert.Equal(t, "q3-plans", slug("Q3 plans!"))
}

func TestDimensionHeader(t *testing.T) {
	assert.Equal(t, "Demand Strength", dimensionHeader("demand_strength"))
	assert.Equal(t, "Feasibility", dimensionHeader("feasibility"))
}
