// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"demand-radar/internal/collector"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/common/metrics"
	"demand-radar/internal/common/validation"
	"demand-radar/internal/evidence"
	"demand-radar/internal/export"
	"demand-radar/internal/ingest"
	"demand-radar/internal/miner"
	"demand-radar/internal/models"
	"demand-radar/internal/notify"
	"demand-radar/internal/scoring"
	"demand-radar/internal/search"
	"demand-radar/internal/storage"
	"demand-radar/pkg/catalog"
)

const (
	maxBodyBytes    = 1 << 20
	maxRankBatch    = 500
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// defaultRelevance is assumed for evidence submitted without a score.
	defaultRelevance = 0.5
)

// Dependencies collects everything the handlers call into. Search and
// Notifier may be nil when the matching config section is disabled.
type Dependencies struct {
	Store     *storage.Store
	Extractor *ingest.TopicExtractor
	Collector *collector.Collector
	Engine    *scoring.Engine
	Weights   *scoring.WeightStore
	Evidence  *evidence.Service
	Search    *search.Index
	Exporter  *export.Exporter
	Miner     *miner.Miner
	Notifier  *notify.Notifier
	Catalog   *catalog.SourceCatalog
	Logger    logger.Logger
}

// Handler contains all HTTP handlers for the demand radar API.
type Handler struct {
	store     *storage.Store
	extractor *ingest.TopicExtractor
	collector *collector.Collector
	engine    *scoring.Engine
	weights   *scoring.WeightStore
	evidence  *evidence.Service
	search    *search.Index
	exporter  *export.Exporter
	miner     *miner.Miner
	notifier  *notify.Notifier
	catalog   *catalog.SourceCatalog
	logger    logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		store:     deps.Store,
		extractor: deps.Extractor,
		collector: deps.Collector,
		engine:    deps.Engine,
		weights:   deps.Weights,
		evidence:  deps.Evidence,
		search:    deps.Search,
		exporter:  deps.Exporter,
		miner:     deps.Miner,
		notifier:  deps.Notifier,
		catalog:   deps.Catalog,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// ==========================
// Request Types
// ==========================

type createConversationRequest struct {
	SourceType string `json:"source_type"`
	Text       string `json:"text"`
}

type createTopicRequest struct {
	ConversationID int64    `json:"conversation_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
}

type collectRequest struct {
	TopicID int64    `json:"topic_id"`
	Queries []string `json:"queries"`
}

type createIdeaRequest struct {
	TopicID             int64  `json:"topic_id"`
	Title               string `json:"title"`
	TargetUser          string `json:"target_user"`
	ValueProp           string `json:"value_prop"`
	WhyNow              string `json:"why_now"`
	PricingModel        string `json:"pricing_model"`
	DistributionChannel string `json:"distribution_channel"`
	Moat                string `json:"moat"`
	OpsBurdenEstimate   string `json:"ops_burden_estimate"`
	ComplianceRisks     string `json:"compliance_risks"`
}

type updateIdeaRequest struct {
	Title               string `json:"title"`
	TargetUser          string `json:"target_user"`
	ValueProp           string `json:"value_prop"`
	WhyNow              string `json:"why_now"`
	PricingModel        string `json:"pricing_model"`
	DistributionChannel string `json:"distribution_channel"`
	Moat                string `json:"moat"`
	OpsBurdenEstimate   string `json:"ops_burden_estimate"`
	ComplianceRisks     string `json:"compliance_risks"`
}

type scoreIdeaRequest struct {
	Weights *models.WeightConfig `json:"weights"`
}

type rankIdeasRequest struct {
	TopicID int64                `json:"topic_id"`
	Weights *models.WeightConfig `json:"weights"`
}

type addEvidenceRequest struct {
	IdeaID         int64    `json:"idea_id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Snippet        string   `json:"snippet"`
	Source         string   `json:"source"`
	RelevanceScore *float64 `json:"relevance_score"`
}

type minerRunRequest struct {
	Feeds []string `json:"feeds"`
	Limit int      `json:"limit"`
}

// topicWithQueries pairs a stored topic with the search queries suggested
// for it. Queries are derived per request and never persisted.
type topicWithQueries struct {
	models.Topic
	SuggestedQueries []string `json:"suggestedQueries,omitempty"`
}

// ==========================
// Helpers
// ==========================

func (h *Handler) respondError(c *gin.Context, err error) {
	stdErr := commonerrors.AsStandardError(err)
	status := commonerrors.HTTPStatus(stdErr)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":       c.Request.URL.Path,
			"code":       string(stdErr.Code),
			"error":      stdErr.Message,
			"details":    stdErr.Details,
			"request_id": c.GetString("request_id"),
		})
	}
	body := gin.H{"error": stdErr.Message, "code": stdErr.Code}
	if stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	c.JSON(status, body)
}

// decodeBody validates the request body against a JSON schema, then binds
// it. An empty body counts as an empty object so optional-only payloads
// can be omitted entirely.
func decodeBody(c *gin.Context, schemaJSON string, out interface{}) error {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return commonerrors.NewValidationError("request body could not be read")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return commonerrors.NewValidationError("request body is not valid JSON")
	}

	result, err := validation.ValidateJSON(doc, schemaJSON)
	if err != nil {
		return commonerrors.NewInternalError(err)
	}
	if !result.Valid {
		return commonerrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return commonerrors.NewValidationError("request body does not match the expected shape")
	}
	return nil
}

func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, commonerrors.NewValidationError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// indexIdea pushes one idea into the search index. Indexing is best
// effort: a search outage never fails the write that triggered it.
func (h *Handler) indexIdea(c *gin.Context, idea models.BusinessIdea, topicName string) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexIdea(c.Request.Context(), idea, topicName); err != nil {
		h.logger.Warn("idea indexing failed", map[string]interface{}{
			"idea_id": idea.ID,
			"error":   err.Error(),
		})
	}
}

// ==========================
// Health Handlers
// ==========================

// HealthCheck returns service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "demand-radar",
	})
}

// ReadyCheck reports whether the service can reach its database.
func (h *Handler) ReadyCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetStats returns pipeline-wide counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Overview(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ==========================
// Conversation Handlers
// ==========================

// CreateConversation ingests a raw conversation, extracts its topics and
// returns both, plus suggested search queries per topic.
func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := decodeBody(c, createConversationSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	conv, messages := ingest.ExtractConversation(req.SourceType, req.Text)
	if err := h.store.CreateConversation(c.Request.Context(), &conv, messages); err != nil {
		h.respondError(c, err)
		return
	}

	candidates := h.extractor.Extract(conv.ID, messages)
	topics := make([]models.Topic, len(candidates))
	for i, cand := range candidates {
		topics[i] = cand.Topic
	}
	created, err := h.store.CreateTopics(c.Request.Context(), topics)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]topicWithQueries, len(created))
	for i := range created {
		candidates[i].Topic = created[i]
		out[i] = topicWithQueries{
			Topic:            created[i],
			SuggestedQueries: ingest.BuildQueries(candidates[i]),
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"conversation": conv,
		"messages":     len(messages),
		"topics":       out,
	})
}

// ListConversations returns stored conversations, newest first.
func (h *Handler) ListConversations(c *gin.Context) {
	limit, offset := parsePagination(c)
	conversations, err := h.store.ListConversations(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// GetConversation returns one conversation with its messages and topics.
func (h *Handler) GetConversation(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	conv, err := h.store.GetConversation(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	messages, err := h.store.GetMessages(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	topics, err := h.store.ListTopics(ctx, id, 0, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"messages":     messages,
		"topics":       topics,
	})
}

// DeleteConversation removes a conversation and everything derived from it.
func (h *Handler) DeleteConversation(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteConversation(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// ==========================
// Topic Handlers
// ==========================

// CreateTopic stores a manually curated topic under a conversation.
func (h *Handler) CreateTopic(c *gin.Context) {
	var req createTopicRequest
	if err := decodeBody(c, createTopicSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetConversation(ctx, req.ConversationID); err != nil {
		h.respondError(c, err)
		return
	}

	topic := models.Topic{
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Description:    req.Description,
		Keywords:       req.Keywords,
	}
	if err := h.store.CreateTopic(ctx, &topic); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// ListTopics returns topics, optionally scoped to one conversation.
func (h *Handler) ListTopics(c *gin.Context) {
	conversationID, err := optionalIDQuery(c, "conversation_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	limit, offset := parsePagination(c)

	topics, err := h.store.ListTopics(c.Request.Context(), conversationID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"count":  len(topics),
	})
}

// GetTopic returns a single topic.
func (h *Handler) GetTopic(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	topic, err := h.store.GetTopic(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

// DeleteTopic removes a topic along with its signals, ideas and evidence.
func (h *Handler) DeleteTopic(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteTopic(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "topic deleted"})
}

// ==========================
// Demand Handlers
// ==========================

// CollectDemand runs one collection pass for a topic across all sources.
// Individual connector failures come back inside the result body; the
// request itself only fails when the topic is unknown or storage is down.
func (h *Handler) CollectDemand(c *gin.Context) {
	var req collectRequest
	if err := decodeBody(c, collectSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.collector.Collect(c.Request.Context(), req.TopicID, req.Queries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTopicDemand returns a topic's collected signals plus aggregate stats.
// Supports ?source= and ?since= (RFC 3339) filters on the signal list, or
// ?latest=true to get only the freshest point of each signal series.
func (h *Handler) GetTopicDemand(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var filter storage.SignalFilter
	if raw := c.Query("source"); raw != "" {
		source, err := models.ParseSource(raw)
		if err != nil {
			h.respondError(c, commonerrors.NewValidationError(err.Error()))
			return
		}
		filter.Source = source
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(c, commonerrors.NewValidationError("since must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = &since
	}

	// Stats checks the topic exists, so an unknown id 404s here.
	ctx := c.Request.Context()
	stats, err := h.collector.Stats(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var signals []models.DemandSignal
	if c.Query("latest") == "true" {
		signals, err = h.store.LatestSignals(ctx, id)
	} else {
		signals, err = h.store.ListSignalsByTopic(ctx, id, filter)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topicId": id,
		"signals": signals,
		"stats":   stats,
	})
}

// ==========================
// Idea Handlers
// ==========================

// CreateIdea stores a business idea under a topic.
func (h *Handler) CreateIdea(c *gin.Context) {
	var req createIdeaRequest
	if err := decodeBody(c, createIdeaSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	topic, err := h.store.GetTopic(ctx, req.TopicID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	idea := models.BusinessIdea{
		TopicID:             req.TopicID,
		Title:               req.Title,
		TargetUser:          req.TargetUser,
		ValueProp:           req.ValueProp,
		WhyNow:              req.WhyNow,
		PricingModel:        req.PricingModel,
		DistributionChannel: req.DistributionChannel,
		Moat:                req.Moat,
		OpsBurdenEstimate:   models.OpsBurden(req.OpsBurdenEstimate),
		ComplianceRisks:     req.ComplianceRisks,
	}
	if err := h.store.CreateIdea(ctx, &idea); err != nil {
		h.respondError(c, err)
		return
	}

	h.indexIdea(c, idea, topic.Name)
	c.JSON(http.StatusCreated, idea)
}

// ListIdeas returns ideas, optionally filtered to a topic or to ranked
// ideas only.
func (h *Handler) ListIdeas(c *gin.Context) {
	topicID, err := optionalIDQuery(c, "topic_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	limit, offset := parsePagination(c)
	rankedOnly := c.Query("ranked") == "true"

	ideas, err := h.store.ListIdeas(c.Request.Context(), storage.ListIdeasOptions{
		TopicID:    topicID,
		RankedOnly: rankedOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ideas": ideas,
		"count": len(ideas),
	})
}

// GetIdea returns a single idea.
func (h *Handler) GetIdea(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	idea, err := h.store.GetIdea(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

// UpdateIdea replaces an idea's descriptive fields. Scores, rank and the
// owning topic are untouched; re-score to refresh the numbers.
func (h *Handler) UpdateIdea(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req updateIdeaRequest
	if err := decodeBody(c, updateIdeaSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	idea, err := h.store.GetIdea(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	idea.Title = req.Title
	idea.TargetUser = req.TargetUser
	idea.ValueProp = req.ValueProp
	idea.WhyNow = req.WhyNow
	idea.PricingModel = req.PricingModel
	idea.DistributionChannel = req.DistributionChannel
	idea.Moat = req.Moat
	idea.OpsBurdenEstimate = models.OpsBurden(req.OpsBurdenEstimate)
	idea.ComplianceRisks = req.ComplianceRisks

	if err := h.store.UpdateIdea(ctx, idea); err != nil {
		h.respondError(c, err)
		return
	}

	if h.search != nil {
		if topic, err := h.store.GetTopic(ctx, idea.TopicID); err == nil {
			h.indexIdea(c, *idea, topic.Name)
		}
	}
	c.JSON(http.StatusOK, idea)
}

// DeleteIdea removes an idea and its evidence.
func (h *Handler) DeleteIdea(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteIdea(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	if h.search != nil {
		if err := h.search.RemoveIdea(c.Request.Context(), id); err != nil {
			h.logger.Warn("idea deindexing failed", map[string]interface{}{
				"idea_id": id,
				"error":   err.Error(),
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "idea deleted"})
}

// ScoreIdea scores one idea against its topic's signals and persists the
// result. Weights come from the request body or fall back to the stored
// profile.
func (h *Handler) ScoreIdea(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req scoreIdeaRequest
	if err := decodeBody(c, scoreIdeaSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	idea, err := h.store.GetIdea(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	signals, err := h.store.ListSignalsByTopic(ctx, idea.TopicID, storage.SignalFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	weights := h.weights.Get()
	if req.Weights != nil {
		weights = *req.Weights
	}

	result, err := h.engine.Score(idea, signals, weights)
	if err != nil {
		metrics.IdeasScored.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}
	if err := h.store.UpdateIdeaScore(ctx, id, result.Total, result.Breakdown); err != nil {
		metrics.IdeasScored.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}
	metrics.IdeasScored.WithLabelValues("ok").Inc()

	if h.search != nil {
		if topic, err := h.store.GetTopic(ctx, idea.TopicID); err == nil {
			idea.TotalScore = &result.Total
			idea.ScoreBreakdown = result.Breakdown
			h.indexIdea(c, *idea, topic.Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ideaId":    id,
		"total":     result.Total,
		"breakdown": result.Breakdown,
		"notes":     result.Notes,
	})
}

// RankIdeas recomputes scores for a batch of ideas and persists a fresh
// ranking. Scoped to one topic when topic_id is given, global otherwise.
// A configured notifier gets the new order as a digest.
func (h *Handler) RankIdeas(c *gin.Context) {
	var req rankIdeasRequest
	if err := decodeBody(c, rankIdeasSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	ideas, err := h.store.ListIdeas(ctx, storage.ListIdeasOptions{
		TopicID: req.TopicID,
		Limit:   maxRankBatch,
	})
	if err != nil {
		metrics.RankingRuns.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}
	if len(ideas) == 0 {
		c.JSON(http.StatusOK, gin.H{"ranked": []scoring.RankedIdea{}, "count": 0})
		return
	}

	signalsByTopic := make(map[int64][]models.DemandSignal)
	for _, idea := range ideas {
		if _, ok := signalsByTopic[idea.TopicID]; ok {
			continue
		}
		signals, err := h.store.ListSignalsByTopic(ctx, idea.TopicID, storage.SignalFilter{})
		if err != nil {
			metrics.RankingRuns.WithLabelValues("error").Inc()
			h.respondError(c, err)
			return
		}
		signalsByTopic[idea.TopicID] = signals
	}

	weights := h.weights.Get()
	if req.Weights != nil {
		weights = *req.Weights
	}

	ranked, err := h.engine.Rank(ideas, signalsByTopic, weights)
	if err != nil {
		metrics.RankingRuns.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}

	for _, r := range ranked {
		if err := h.store.UpdateIdeaScore(ctx, r.Idea.ID, r.Total, r.Breakdown); err != nil {
			metrics.RankingRuns.WithLabelValues("error").Inc()
			h.respondError(c, err)
			return
		}
	}
	if err := h.store.ApplyRanks(ctx, scoring.Assignments(ranked)); err != nil {
		metrics.RankingRuns.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}
	metrics.RankingRuns.WithLabelValues("ok").Inc()

	rankedIdeas := make([]models.BusinessIdea, len(ranked))
	for i, r := range ranked {
		idea := r.Idea
		total := r.Total
		rank := r.Rank
		idea.TotalScore = &total
		idea.ScoreBreakdown = r.Breakdown
		idea.Rank = &rank
		rankedIdeas[i] = idea
	}

	if h.notifier != nil {
		h.notifier.RankingDigest(ctx, rankedIdeas)
	}
	h.reindexRanked(c, rankedIdeas)

	c.JSON(http.StatusOK, gin.H{
		"ranked": ranked,
		"count":  len(ranked),
	})
}

// reindexRanked refreshes the search index after a ranking run, one bulk
// call per topic.
func (h *Handler) reindexRanked(c *gin.Context, ideas []models.BusinessIdea) {
	if h.search == nil {
		return
	}
	ctx := c.Request.Context()

	byTopic := make(map[int64][]models.BusinessIdea)
	for _, idea := range ideas {
		byTopic[idea.TopicID] = append(byTopic[idea.TopicID], idea)
	}
	for topicID, group := range byTopic {
		topic, err := h.store.GetTopic(ctx, topicID)
		if err != nil {
			h.logger.Warn("reindex skipped for topic", map[string]interface{}{
				"topic_id": topicID,
				"error":    err.Error(),
			})
			continue
		}
		if err := h.search.IndexIdeas(ctx, group, topic.Name); err != nil {
			h.logger.Warn("bulk indexing failed", map[string]interface{}{
				"topic_id": topicID,
				"error":    err.Error(),
			})
		}
	}
}

// SearchIdeas runs a full-text query over indexed ideas. Unavailable when
// the search backend is disabled.
func (h *Handler) SearchIdeas(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "search is not enabled",
			"code":  "SEARCH_DISABLED",
		})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		h.respondError(c, commonerrors.NewValidationError("q is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	hits, err := h.search.SearchIdeas(c.Request.Context(), query, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"hits":  hits,
		"count": len(hits),
	})
}

// ==========================
// Evidence Handlers
// ==========================

// AddEvidence attaches a provenance link to an idea.
func (h *Handler) AddEvidence(c *gin.Context) {
	var req addEvidenceRequest
	if err := decodeBody(c, addEvidenceSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	relevance := defaultRelevance
	if req.RelevanceScore != nil {
		relevance = *req.RelevanceScore
	}
	link := models.EvidenceLink{
		IdeaID:         req.IdeaID,
		URL:            req.URL,
		Title:          req.Title,
		Snippet:        req.Snippet,
		Source:         req.Source,
		RelevanceScore: relevance,
	}
	if err := h.evidence.Add(c.Request.Context(), &link); err != nil {
		h.respondError(c, err)
		return
	}

	if h.search != nil {
		if err := h.search.IndexEvidence(c.Request.Context(), link); err != nil {
			h.logger.Warn("evidence indexing failed", map[string]interface{}{
				"evidence_id": link.ID,
				"error":       err.Error(),
			})
		}
	}
	c.JSON(http.StatusCreated, link)
}

// ListIdeaEvidence returns an idea's evidence links, most relevant first.
func (h *Handler) ListIdeaEvidence(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetIdea(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	links, err := h.evidence.ListForIdea(ctx, id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ideaId":   id,
		"evidence": links,
		"count":    len(links),
	})
}

// DeleteEvidence removes one evidence link.
func (h *Handler) DeleteEvidence(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.evidence.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "evidence deleted"})
}

// ==========================
// Scoring Config Handlers
// ==========================

// GetWeights returns the active scoring weight profile.
func (h *Handler) GetWeights(c *gin.Context) {
	c.JSON(http.StatusOK, h.weights.Get())
}

// UpdateWeights replaces the stored weight profile.
func (h *Handler) UpdateWeights(c *gin.Context) {
	var w models.WeightConfig
	if err := decodeBody(c, updateWeightsSchema, &w); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.weights.Update(w); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "weights updated",
		"weights": h.weights.Get(),
	})
}

// ==========================
// Source / Miner / Report Handlers
// ==========================

// ListSources returns the connector catalog.
func (h *Handler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}

// RunMiner scans RSS feeds for pain-point posts and suggests queries.
func (h *Handler) RunMiner(c *gin.Context) {
	var req minerRunRequest
	if err := decodeBody(c, minerRunSchema, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.miner.Run(c.Request.Context(), req.Feeds, req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TopicReport streams a topic's ranked ideas and evidence as an xlsx
// workbook.
func (h *Handler) TopicReport(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.exporter.TopicReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, xlsxContentType, report.Data)
}

func optionalIDQuery(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, commonerrors.NewValidationError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}
