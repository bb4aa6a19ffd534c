// internal/evidence/service.go
package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"demand-radar/internal/common/config"
	commonerrors "demand-radar/internal/common/errors"
	commonhttp "demand-radar/internal/common/http"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
	"demand-radar/internal/storage"
)

// Service validates and stores evidence links, optionally enriching bare
// links with the page title and meta description.
type Service struct {
	store  *storage.Store
	client *commonhttp.Client
	cfg    config.EvidenceConfig
	logger logger.Logger
}

func New(store *storage.Store, cfg config.EvidenceConfig, log logger.Logger) *Service {
	timeout := time.Duration(cfg.FetchTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Service{
		store:  store,
		client: commonhttp.NewClient(timeout),
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "evidence"}),
	}
}

// Add validates and stores an evidence link for an existing idea. When
// enrichment is on and the caller left title or snippet empty, both are
// filled from the page itself; a failed fetch leaves the fields as given.
func (s *Service) Add(ctx context.Context, link *models.EvidenceLink) error {
	if err := validate(link); err != nil {
		return err
	}
	if _, err := s.store.GetIdea(ctx, link.IdeaID); err != nil {
		return err
	}

	if link.Source == "" {
		link.Source = "manual"
	}
	if s.cfg.EnrichEnabled && (link.Title == "" || link.Snippet == "") {
		s.enrich(ctx, link)
	}

	return s.store.AddEvidence(ctx, link)
}

// Get fetches a single evidence link.
func (s *Service) Get(ctx context.Context, id int64) (*models.EvidenceLink, error) {
	return s.store.GetEvidence(ctx, id)
}

// ListForIdea returns an idea's evidence, checking the idea exists first so
// an unknown id reads as a lookup failure rather than an empty list.
func (s *Service) ListForIdea(ctx context.Context, ideaID int64, limit int) ([]models.EvidenceLink, error) {
	if _, err := s.store.GetIdea(ctx, ideaID); err != nil {
		return nil, err
	}
	return s.store.ListEvidenceByIdea(ctx, ideaID, limit)
}

// Delete removes a single evidence link.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteEvidence(ctx, id)
}

func validate(link *models.EvidenceLink) error {
	if strings.TrimSpace(link.URL) == "" {
		return commonerrors.NewValidationError("evidence url is required")
	}
	parsed, err := url.Parse(link.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return commonerrors.NewValidationError(fmt.Sprintf("evidence url %q is not absolute", link.URL))
	}
	if link.RelevanceScore < 0 || link.RelevanceScore > 1 {
		return commonerrors.NewValidationError(fmt.Sprintf("relevance score %.2f outside [0, 1]", link.RelevanceScore))
	}
	return nil
}

// enrich fills missing title and snippet from the linked page. Failures are
// logged and swallowed; the link is stored with whatever the caller gave.
func (s *Service) enrich(ctx context.Context, link *models.EvidenceLink) {
	title, description, err := s.fetchPageMeta(ctx, link.URL)
	if err != nil {
		s.logger.Warn("evidence enrichment failed", map[string]interface{}{
			"url":   link.URL,
			"error": err.Error(),
		})
		return
	}

	if link.Title == "" {
		link.Title = title
	}
	if link.Snippet == "" {
		link.Snippet = description
	}
}

func (s *Service) fetchPageMeta(ctx context.Context, pageURL string) (title, description string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse page: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		if og, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
			title = strings.TrimSpace(og)
		}
	}

	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists {
		description = strings.TrimSpace(desc)
	} else if og, exists := doc.Find("meta[property='og:description']").Attr("content"); exists {
		description = strings.TrimSpace(og)
	}

	return title, description, nil
}
