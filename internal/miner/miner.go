// internal/miner/miner.go
package miner

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/mmcdole/gofeed"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/common/validation"
)

// painPhrases are matched as substrings of lowercased feed titles. A title
// hitting any of them reads like someone describing a problem worth a
// demand query.
var painPhrases = []string{
	"how do i",
	"how do you",
	"struggling with",
	"is there a tool",
	"is there an app",
	"looking for a tool",
	"any recommendations",
	"what do you use",
	"tired of",
	"fed up with",
	"wasting time",
	"hate doing",
	"by hand",
	"manually",
}

// PainPost is a feed entry whose title matched at least one pain phrase.
type PainPost struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Feed        string    `json:"feed"`
	Phrases     []string  `json:"phrases"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Result is the outcome of one mining run.
type Result struct {
	Feeds      int        `json:"feeds"`
	Scanned    int        `json:"scanned"`
	Posts      []PainPost `json:"posts"`
	Queries    []string   `json:"queries"`
	Mock       bool       `json:"mock"`
	DurationMS int64      `json:"durationMs"`
}

// Miner pulls RSS/Atom feeds and keeps the entries that read like pain
// points, turning them into suggested demand queries.
type Miner struct {
	cfg     config.MinerConfig
	client  *http.Client
	parser  *gofeed.Parser
	matcher *ahocorasick.Matcher
	logger  logger.Logger
}

// New builds a miner with the pain-phrase matcher ready.
func New(cfg config.MinerConfig, log logger.Logger) *Miner {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Miner{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		parser:  gofeed.NewParser(),
		matcher: ahocorasick.NewStringMatcher(painPhrases),
		logger:  log.WithFields(map[string]interface{}{"component": "miner"}),
	}
}

// Run mines the given feeds, falling back to the configured ones and then to
// the deterministic mock list when nothing is configured. A feed with a
// malformed url, or one that fails to fetch or parse, is logged and skipped;
// it never fails the run.
func (m *Miner) Run(ctx context.Context, feeds []string, limit int) (*Result, error) {
	start := time.Now()

	if len(feeds) == 0 {
		feeds = m.cfg.Feeds
	}
	if limit <= 0 {
		limit = m.cfg.MaxQueries
	}
	if limit <= 0 {
		limit = 25
	}

	if len(feeds) == 0 {
		result := m.mockResult(limit)
		result.DurationMS = time.Since(start).Milliseconds()
		m.logger.Info("mining run finished", map[string]interface{}{
			"mock":    true,
			"posts":   len(result.Posts),
			"queries": len(result.Queries),
		})
		return result, nil
	}

	result := &Result{Feeds: len(feeds)}
	posts := make([]PainPost, 0, limit)

	for _, feedURL := range feeds {
		if !validation.ValidateURL(feedURL) {
			m.logger.Warn("feed skipped", map[string]interface{}{
				"feed":  feedURL,
				"error": "not a valid feed url",
			})
			continue
		}
		scanned, found, err := m.mineFeed(ctx, feedURL)
		result.Scanned += scanned
		if err != nil {
			m.logger.Warn("feed skipped", map[string]interface{}{
				"feed":  feedURL,
				"error": err.Error(),
			})
			continue
		}
		posts = append(posts, found...)
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].PublishedAt.After(posts[j].PublishedAt)
		}
		return posts[i].Title < posts[j].Title
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}

	result.Posts = posts
	result.Queries = suggestQueries(posts, limit)
	result.DurationMS = time.Since(start).Milliseconds()

	m.logger.Info("mining run finished", map[string]interface{}{
		"feeds":   result.Feeds,
		"scanned": result.Scanned,
		"posts":   len(result.Posts),
		"queries": len(result.Queries),
	})
	return result, nil
}

// mineFeed fetches one feed and returns the entries that hit a pain phrase.
func (m *Miner) mineFeed(ctx context.Context, feedURL string) (scanned int, posts []PainPost, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	feed, err := m.parser.Parse(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feedTitle := strings.TrimSpace(feed.Title)
	if feedTitle == "" {
		feedTitle = feedURL
	}

	for _, item := range feed.Items {
		scanned++

		title := strings.TrimSpace(item.Title)
		phrases := m.matchPhrases(title)
		if len(phrases) == 0 {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		posts = append(posts, PainPost{
			Title:       title,
			URL:         itemLink(item),
			Feed:        feedTitle,
			Phrases:     phrases,
			PublishedAt: published,
		})
	}

	return scanned, posts, nil
}

// matchPhrases returns the pain phrases found in the title, in table order.
func (m *Miner) matchPhrases(title string) []string {
	hits := m.matcher.Match([]byte(strings.ToLower(title)))
	if len(hits) == 0 {
		return nil
	}

	sort.Ints(hits)
	phrases := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx < len(painPhrases) {
			phrases = append(phrases, painPhrases[idx])
		}
	}
	return phrases
}

// itemLink prefers the entry link, falling back to a GUID that looks like a URL.
func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return strings.TrimSpace(item.Link)
	}
	if strings.HasPrefix(item.GUID, "http") {
		return strings.TrimSpace(item.GUID)
	}
	return ""
}

// suggestQueries turns pain posts into deduplicated search queries.
func suggestQueries(posts []PainPost, limit int) []string {
	queries := make([]string, 0, len(posts))
	seen := make(map[string]bool)

	for _, post := range posts {
		q := suggestQuery(post.Title)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) >= limit {
			break
		}
	}
	return queries
}

// suggestQuery reduces a title to a search query: lowercased, question
// punctuation dropped, leading question phrase stripped. "How do I track
// invoices?" becomes "track invoices".
func suggestQuery(title string) string {
	q := strings.ToLower(strings.TrimSpace(title))
	q = strings.TrimRight(q, " ?!.")

	for _, phrase := range painPhrases {
		if strings.HasPrefix(q, phrase+" ") {
			q = strings.TrimSpace(strings.TrimPrefix(q, phrase))
			break
		}
	}
	return q
}
