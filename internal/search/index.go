// internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/database"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
)

const defaultSearchSize = 20

// Index mirrors scored ideas and evidence links into Elasticsearch so the
// search endpoint can answer free-text queries. The whole component is
// optional; when search is disabled in config nothing constructs an Index
// and the endpoint reports unavailable.
type Index struct {
	es     *database.ElasticsearchClient
	cfg    config.SearchConfig
	logger logger.Logger
}

func New(es *database.ElasticsearchClient, cfg config.SearchConfig, log logger.Logger) *Index {
	if cfg.IdeasIndex == "" {
		cfg.IdeasIndex = "ideas"
	}
	if cfg.EvidenceIndex == "" {
		cfg.EvidenceIndex = "evidence"
	}

	return &Index{
		es:     es,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

// IdeaDocument is the indexed shape of a scored idea.
type IdeaDocument struct {
	ID                  int64     `json:"id"`
	TopicID             int64     `json:"topic_id"`
	TopicName           string    `json:"topic_name,omitempty"`
	Title               string    `json:"title"`
	TargetUser          string    `json:"target_user,omitempty"`
	ValueProp           string    `json:"value_prop,omitempty"`
	PricingModel        string    `json:"pricing_model,omitempty"`
	DistributionChannel string    `json:"distribution_channel,omitempty"`
	TotalScore          float64   `json:"total_score"`
	Rank                int       `json:"rank,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewIdeaDocument flattens an idea for indexing. Unscored ideas index with a
// zero score so they still show up in title searches.
func NewIdeaDocument(idea models.BusinessIdea, topicName string) IdeaDocument {
	doc := IdeaDocument{
		ID:                  idea.ID,
		TopicID:             idea.TopicID,
		TopicName:           topicName,
		Title:               idea.Title,
		TargetUser:          idea.TargetUser,
		ValueProp:           idea.ValueProp,
		PricingModel:        idea.PricingModel,
		DistributionChannel: idea.DistributionChannel,
		CreatedAt:           idea.CreatedAt,
	}
	if idea.TotalScore != nil {
		doc.TotalScore = *idea.TotalScore
	}
	if idea.Rank != nil {
		doc.Rank = *idea.Rank
	}
	return doc
}

// EvidenceDocument is the indexed shape of an evidence link.
type EvidenceDocument struct {
	ID             int64     `json:"id"`
	IdeaID         int64     `json:"idea_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	Snippet        string    `json:"snippet,omitempty"`
	Source         string    `json:"source,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// IndexIdea writes or overwrites one idea document.
func (i *Index) IndexIdea(ctx context.Context, idea models.BusinessIdea, topicName string) error {
	body, err := json.Marshal(NewIdeaDocument(idea, topicName))
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("failed to marshal idea document: %w", err))
	}

	res, err := i.es.Client.Index(
		i.cfg.IdeasIndex,
		bytes.NewReader(body),
		i.es.Client.Index.WithContext(ctx),
		i.es.Client.Index.WithDocumentID(strconv.FormatInt(idea.ID, 10)),
	)
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("failed to index idea: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewSearchError(fmt.Errorf("index idea %d: %s", idea.ID, res.Status()))
	}
	return nil
}

// IndexIdeas bulk-indexes a batch of ideas, typically right after a ranking
// run. An empty batch is a no-op.
func (i *Index) IndexIdeas(ctx context.Context, ideas []models.BusinessIdea, topicName string) error {
	if len(ideas) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, idea := range ideas {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": i.cfg.IdeasIndex,
				"_id":    strconv.FormatInt(idea.ID, 10),
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return commonerrors.NewSearchError(fmt.Errorf("failed to encode bulk meta: %w", err))
		}
		if err := json.NewEncoder(&buf).Encode(NewIdeaDocument(idea, topicName)); err != nil {
			return commonerrors.NewSearchError(fmt.Errorf("failed to encode bulk document: %w", err))
		}
	}

	res, err := i.es.Client.Bulk(
		bytes.NewReader(buf.Bytes()),
		i.es.Client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("bulk index failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewSearchError(fmt.Errorf("bulk index: %s", res.Status()))
	}

	i.logger.Info("ideas indexed", map[string]interface{}{
		"count": len(ideas),
		"index": i.cfg.IdeasIndex,
	})
	return nil
}

// IndexEvidence writes or overwrites one evidence document.
func (i *Index) IndexEvidence(ctx context.Context, link models.EvidenceLink) error {
	doc := EvidenceDocument{
		ID:             link.ID,
		IdeaID:         link.IdeaID,
		URL:            link.URL,
		Title:          link.Title,
		Snippet:        link.Snippet,
		Source:         link.Source,
		RelevanceScore: link.RelevanceScore,
		CreatedAt:      link.CreatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("failed to marshal evidence document: %w", err))
	}

	res, err := i.es.Client.Index(
		i.cfg.EvidenceIndex,
		bytes.NewReader(body),
		i.es.Client.Index.WithContext(ctx),
		i.es.Client.Index.WithDocumentID(strconv.FormatInt(link.ID, 10)),
	)
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("failed to index evidence: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewSearchError(fmt.Errorf("index evidence %d: %s", link.ID, res.Status()))
	}
	return nil
}

// RemoveIdea drops an idea document. A document that was never indexed is
// not an error.
func (i *Index) RemoveIdea(ctx context.Context, ideaID int64) error {
	res, err := i.es.Client.Delete(
		i.cfg.IdeasIndex,
		strconv.FormatInt(ideaID, 10),
		i.es.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return commonerrors.NewSearchError(fmt.Errorf("failed to delete idea document: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return commonerrors.NewSearchError(fmt.Errorf("delete idea %d: %s", ideaID, res.Status()))
	}
	return nil
}

// IdeaHit is one search result with its relevance score.
type IdeaHit struct {
	IdeaDocument
	Score float64 `json:"score"`
}

// SearchIdeas runs a multi_match query over the idea index.
func (i *Index) SearchIdeas(ctx context.Context, query string, limit int) ([]IdeaHit, error) {
	if limit <= 0 {
		limit = defaultSearchSize
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "value_prop", "target_user", "topic_name"},
			},
		},
		"size": limit,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, commonerrors.NewSearchError(fmt.Errorf("failed to marshal query: %w", err))
	}

	res, err := i.es.Client.Search(
		i.es.Client.Search.WithContext(ctx),
		i.es.Client.Search.WithIndex(i.cfg.IdeasIndex),
		i.es.Client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, commonerrors.NewSearchError(fmt.Errorf("search failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewSearchError(fmt.Errorf("search ideas: %s", res.Status()))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Score  float64      `json:"_score"`
				Source IdeaDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, commonerrors.NewSearchError(fmt.Errorf("failed to decode search response: %w", err))
	}

	hits := make([]IdeaHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, IdeaHit{IdeaDocument: h.Source, Score: h.Score})
	}
	return hits, nil
}
