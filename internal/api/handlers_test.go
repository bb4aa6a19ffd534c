// internal/api/handlers_test.go
package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-radar/internal/collector"
	"demand-radar/internal/common/config"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/connectors"
	"demand-radar/internal/evidence"
	"demand-radar/internal/export"
	"demand-radar/internal/ingest"
	"demand-radar/internal/miner"
	"demand-radar/internal/scoring"
	"demand-radar/internal/storage"
	"demand-radar/pkg/catalog"
)

type stubRegistry struct {
	list []connectors.Connector
}

func (r *stubRegistry) All() []connectors.Connector {
	return r.list
}

type testAPI struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	store := storage.New(db, storage.DriverPostgres, log)

	weights, err := scoring.NewWeightStore(filepath.Join(t.TempDir(), "weights.yaml"), false, log)
	require.NoError(t, err)

	handler := NewHandler(Dependencies{
		Store:     store,
		Extractor: ingest.NewTopicExtractor(log),
		Collector: collector.New(store, &stubRegistry{}, config.CollectorConfig{}, nil, log),
		Engine:    scoring.NewEngine(log),
		Weights:   weights,
		Evidence:  evidence.New(store, config.EvidenceConfig{}, log),
		Exporter:  export.NewExporter(store, log),
		Miner:     miner.New(config.MinerConfig{}, log),
		Catalog:   catalog.Default(),
		Logger:    log,
	})

	router := gin.New()
	SetupRoutes(router, handler, config.ServerConfig{})
	return &testAPI{router: router, mock: mock}
}

func (a *testAPI) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func expectTopicLookup(mock sqlmock.Sqlmock, id int64, name string) {
	mock.ExpectQuery(`SELECT (.+) FROM topics WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "name", "description", "keywords", "message_count", "created_at",
		}).AddRow(id, int64(1), name, "Mentioned in 2 of 2 messages",
			`["invoice","billing"]`, 2, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func ideaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "topic_id", "title", "target_user", "value_prop", "why_now", "pricing_model",
		"distribution_channel", "moat", "ops_burden_estimate", "compliance_risks",
		"total_score", "score_breakdown", "rank", "created_at",
	})
}

func signalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "topic_id", "source", "query", "metric_type", "value", "unit", "url", "collected_at",
	})
}

// ==========================
// Health Tests
// ==========================

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "demand-radar", body["service"])
}

// ==========================
// Conversation Tests
// ==========================

func TestCreateConversation_ExtractsTopics(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectBegin()
	api.mock.ExpectQuery(`INSERT INTO conversations`).
		WithArgs("call_notes", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	api.mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(11), "Client", sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	api.mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(11), "Consultant", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	api.mock.ExpectCommit()

	api.mock.ExpectBegin()
	api.mock.ExpectQuery(`INSERT INTO topics`).
		WithArgs(int64(11), "payments", sqlmock.AnyArg(), sqlmock.AnyArg(), 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	api.mock.ExpectCommit()

	payload := `{
		"source_type": "call_notes",
		"text": "Client: Chasing unpaid invoices eats my whole Friday.\nConsultant: Billing reminders are still typed by hand."
	}`
	w := api.do(http.MethodPost, "/api/conversations", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON(t, w)

	conv := body["conversation"].(map[string]interface{})
	assert.Equal(t, float64(11), conv["id"])
	assert.Equal(t, float64(2), body["messages"])

	topics := body["topics"].([]interface{})
	require.Len(t, topics, 1)
	topic := topics[0].(map[string]interface{})
	assert.Equal(t, float64(21), topic["id"])
	assert.Equal(t, "payments", topic["name"])
	assert.NotEmpty(t, topic["suggestedQueries"])

	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateConversation_MissingText(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/conversations", `{"source_type": "call_notes"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

// ==========================
// Topic Tests
// ==========================

func TestGetTopic_ReturnsTopic(t *testing.T) {
	api := newTestAPI(t)
	expectTopicLookup(api.mock, 4, "payments")

	w := api.do(http.MethodGet, "/api/topics/4", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "payments", body["name"])
	assert.Equal(t, float64(4), body["id"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestGetTopic_UnknownID(t *testing.T) {
	api := newTestAPI(t)
	api.mock.ExpectQuery(`SELECT (.+) FROM topics WHERE id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := api.do(http.MethodGet, "/api/topics/99", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestGetTopic_BadID(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/topics/abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestCreateTopic_UnknownConversation(t *testing.T) {
	api := newTestAPI(t)
	api.mock.ExpectQuery(`SELECT (.+) FROM conversations WHERE id`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	w := api.do(http.MethodPost, "/api/topics", `{"conversation_id": 42, "name": "payments"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

// ==========================
// Demand Tests
// ==========================

func TestGetTopicDemand_FiltersBySource(t *testing.T) {
	api := newTestAPI(t)

	expectTopicLookup(api.mock, 4, "payments")
	api.mock.ExpectQuery(`SELECT COUNT(.+) FROM demand_signals`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(1, 140.0))
	api.mock.ExpectQuery(`SELECT DISTINCT source`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow("forum"))
	api.mock.ExpectQuery(`SELECT id, topic_id, source(.+)FROM demand_signals`).
		WithArgs(int64(4), "forum").
		WillReturnRows(signalRows().AddRow(
			int64(1), int64(4), "forum", "invoice chasing", "volume", 140.0, "mentions",
			"https://forum.example.com/search?q=invoice+chasing",
			time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	w := api.do(http.MethodGet, "/api/demand/topic/4?source=forum", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(4), body["topicId"])

	signals := body["signals"].([]interface{})
	require.Len(t, signals, 1)
	first := signals[0].(map[string]interface{})
	assert.Equal(t, "forum", first["source"])

	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["signalCount"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestGetTopicDemand_RejectsUnknownSource(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/demand/topic/4?source=carrier-pigeon", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestCollectDemand_UnknownTopic(t *testing.T) {
	api := newTestAPI(t)
	api.mock.ExpectQuery(`SELECT (.+) FROM topics WHERE id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := api.do(http.MethodPost, "/api/demand/collect", `{"topic_id": 99, "queries": ["invoice chasing"]}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

// ==========================
// Idea Tests
// ==========================

func TestCreateIdea_StoresIdea(t *testing.T) {
	api := newTestAPI(t)

	expectTopicLookup(api.mock, 4, "payments")
	api.mock.ExpectQuery(`INSERT INTO business_ideas`).
		WithArgs(int64(4), "Invoice chase-up assistant", "small agencies", "", "", "subscription",
			"", "", "low", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	payload := `{
		"topic_id": 4,
		"title": "Invoice chase-up assistant",
		"target_user": "small agencies",
		"pricing_model": "subscription",
		"ops_burden_estimate": "low"
	}`
	w := api.do(http.MethodPost, "/api/ideas", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "Invoice chase-up assistant", body["title"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateIdea_MissingTitle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/ideas", `{"topic_id": 4}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Contains(t, body["details"], "title")
}

func TestUpdateIdea_ReplacesFields(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(ideaRows().AddRow(
			int64(7), int64(4), "Invoice chase-up assistant", "small agencies", "", "",
			"subscription", "", "", "low", "",
			nil, nil, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	api.mock.ExpectExec(`UPDATE business_ideas`).
		WithArgs("Invoice chase-up autopilot", "bookkeepers", "", "", "subscription",
			"newsletter", "", "medium", "", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{
		"title": "Invoice chase-up autopilot",
		"target_user": "bookkeepers",
		"pricing_model": "subscription",
		"distribution_channel": "newsletter",
		"ops_burden_estimate": "medium"
	}`
	w := api.do(http.MethodPut, "/api/ideas/7", payload)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "Invoice chase-up autopilot", body["title"])
	assert.Equal(t, "bookkeepers", body["targetUser"])
	assert.Equal(t, "medium", body["opsBurdenEstimate"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestUpdateIdea_MissingTitle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPut, "/api/ideas/7", `{"target_user": "bookkeepers"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Contains(t, body["details"], "title")
}

func TestScoreIdea_PersistsScore(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(ideaRows().AddRow(
			int64(7), int64(4), "Invoice chase-up assistant", "small agencies", "", "",
			"subscription", "newsletter", "", "low", "",
			nil, nil, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	api.mock.ExpectQuery(`SELECT id, topic_id, source(.+)FROM demand_signals`).
		WithArgs(int64(4)).
		WillReturnRows(signalRows())
	api.mock.ExpectExec(`UPDATE business_ideas SET total_score`).
		WithArgs(56.75, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := api.do(http.MethodPost, "/api/ideas/7/score", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(7), body["ideaId"])
	assert.InDelta(t, 56.75, body["total"].(float64), 0.001)

	breakdown := body["breakdown"].(map[string]interface{})
	assert.Len(t, breakdown, 6)
	assert.InDelta(t, 65.0, breakdown["competition_proxy"].(float64), 0.001)

	notes := body["notes"].(map[string]interface{})
	assert.Equal(t, "no signal data", notes["demand_strength"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestRankIdeas_AppliesRanking(t *testing.T) {
	api := newTestAPI(t)

	rows := ideaRows().
		AddRow(int64(7), int64(4), "Invoice chase-up assistant", "", "", "", "", "", "", "", "",
			nil, nil, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)).
		AddRow(int64(9), int64(4), "Deposit reconciliation digest", "", "", "", "", "", "", "", "",
			nil, nil, nil, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE topic_id`).
		WithArgs(int64(4), maxRankBatch, 0).
		WillReturnRows(rows)
	api.mock.ExpectQuery(`SELECT id, topic_id, source(.+)FROM demand_signals`).
		WithArgs(int64(4)).
		WillReturnRows(signalRows())

	api.mock.ExpectExec(`UPDATE business_ideas SET total_score`).
		WithArgs(38.75, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	api.mock.ExpectExec(`UPDATE business_ideas SET total_score`).
		WithArgs(38.75, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	api.mock.ExpectBegin()
	api.mock.ExpectExec(`UPDATE business_ideas SET rank = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	api.mock.ExpectExec(`UPDATE business_ideas SET rank`).
		WithArgs(1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	api.mock.ExpectExec(`UPDATE business_ideas SET rank`).
		WithArgs(2, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	api.mock.ExpectCommit()

	w := api.do(http.MethodPost, "/api/ideas/rank", `{"topic_id": 4}`)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(2), body["count"])

	ranked := body["ranked"].([]interface{})
	require.Len(t, ranked, 2)
	first := ranked[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, float64(7), first["idea"].(map[string]interface{})["id"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestSearchIdeas_DisabledReturns503(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/ideas/search?q=invoice", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "search is not enabled", body["error"])
	assert.Equal(t, "SEARCH_DISABLED", body["code"])
}

// ==========================
// Evidence Tests
// ==========================

func TestAddEvidence_DefaultsRelevance(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE id`).
		WithArgs(int64(9)).
		WillReturnRows(ideaRows().AddRow(
			int64(9), int64(4), "Deposit reconciliation digest", "", "", "", "", "", "", "", "",
			nil, nil, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	api.mock.ExpectQuery(`INSERT INTO evidence_links`).
		WithArgs(int64(9), "https://forum.example.com/t/123", "", "", "manual", 0.5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))

	w := api.do(http.MethodPost, "/api/evidence", `{"idea_id": 9, "url": "https://forum.example.com/t/123"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(31), body["id"])
	assert.Equal(t, "manual", body["source"])
	assert.InDelta(t, 0.5, body["relevanceScore"].(float64), 0.001)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestListIdeaEvidence_UnknownIdea(t *testing.T) {
	api := newTestAPI(t)
	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := api.do(http.MethodGet, "/api/evidence/idea/99", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

// ==========================
// Scoring Config Tests
// ==========================

func TestGetWeights_ReturnsProfile(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/scoring/weights", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.InDelta(t, 0.25, body["demand_strength"].(float64), 0.001)
	assert.InDelta(t, 0.10, body["monetization_clarity"].(float64), 0.001)
}

func TestUpdateWeights_RejectsNegative(t *testing.T) {
	api := newTestAPI(t)

	payload := `{
		"demand_strength": -0.1,
		"demand_velocity": 0.2,
		"competition_proxy": 0.15,
		"feasibility": 0.2,
		"automation_friendly": 0.1,
		"monetization_clarity": 0.1
	}`
	w := api.do(http.MethodPut, "/api/scoring/weights", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestUpdateWeights_ReplacesProfile(t *testing.T) {
	api := newTestAPI(t)

	payload := `{
		"demand_strength": 0.4,
		"demand_velocity": 0.1,
		"competition_proxy": 0.1,
		"feasibility": 0.2,
		"automation_friendly": 0.1,
		"monetization_clarity": 0.1
	}`
	w := api.do(http.MethodPut, "/api/scoring/weights", payload)

	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/scoring/weights", "")
	body := decodeJSON(t, w)
	assert.InDelta(t, 0.4, body["demand_strength"].(float64), 0.001)
}

// ==========================
// Source / Miner / Report Tests
// ==========================

func TestListSources_ReturnsCatalog(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/sources", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	sources := body["sources"].([]interface{})
	assert.Len(t, sources, 4)
}

func TestRunMiner_MockFallback(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/miner/run", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["mock"])
	assert.NotEmpty(t, body["queries"])
}

func TestTopicReport_StreamsWorkbook(t *testing.T) {
	api := newTestAPI(t)

	expectTopicLookup(api.mock, 4, "payments")
	api.mock.ExpectQuery(`SELECT (.+) FROM business_ideas WHERE topic_id`).
		WithArgs(int64(4), 100, 0).
		WillReturnRows(ideaRows())

	w := api.do(http.MethodGet, "/api/topics/4/report", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "topic-4-payments.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}
