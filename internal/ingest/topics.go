// internal/ingest/topics.go
package ingest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
)

// topicCluster is one row of the fixed keyword table messages are matched
// against. Keywords are matched as substrings of normalized text, so
// "payment" also hits "payments"; entries stay long enough not to hide
// inside unrelated words.
type topicCluster struct {
	name     string
	keywords []string
}

var clusterTable = []topicCluster{
	{name: "compliance", keywords: []string{
		"compliance", "regulation", "audit", "gdpr", "hipaa", "legal review", "licensing", "privacy policy",
	}},
	{name: "payments", keywords: []string{
		"payment", "invoice", "invoicing", "billing", "checkout", "refund", "chargeback", "payout",
	}},
	{name: "marketing", keywords: []string{
		"marketing", "seo", "advertising", "campaign", "social media", "newsletter", "branding", "lead generation",
	}},
	{name: "operations", keywords: []string{
		"operations", "logistics", "inventory", "scheduling", "workflow", "supply chain", "fulfillment", "procurement",
	}},
	{name: "software", keywords: []string{
		"software", "saas", "integration", "automation", "platform", "dashboard", "spreadsheet",
	}},
	{name: "hiring", keywords: []string{
		"hiring", "recruiting", "recruitment", "onboarding", "interview", "candidate", "staffing", "payroll",
	}},
	{name: "communication", keywords: []string{
		"communication", "email", "meeting", "notification", "messaging", "follow up", "phone call",
	}},
}

// TopicCandidate is an extracted topic plus the message fragments that
// produced it, kept around for query generation.
type TopicCandidate struct {
	Topic     models.Topic
	Fragments []string
}

// TopicExtractor matches conversation messages against the cluster table
// with a single Aho-Corasick pass per message.
type TopicExtractor struct {
	matcher   *ahocorasick.Matcher
	keywords  []string
	kwCluster []int // keyword index -> cluster index
	logger    logger.Logger
}

// NewTopicExtractor builds the matcher over the full cluster table.
func NewTopicExtractor(log logger.Logger) *TopicExtractor {
	e := &TopicExtractor{logger: log}
	for ci, cluster := range clusterTable {
		for _, kw := range cluster.keywords {
			e.keywords = append(e.keywords, normalizeKeyword(kw))
			e.kwCluster = append(e.kwCluster, ci)
		}
	}
	e.matcher = ahocorasick.NewStringMatcher(e.keywords)
	return e
}

type clusterHit struct {
	messages  int
	matched   map[int]bool // keyword index
	fragments []string
}

// Extract returns one topic candidate per cluster that at least one message
// matched, busiest cluster first. MessageCount counts messages, not keyword
// hits, so a message mentioning three payment terms still counts once.
func (e *TopicExtractor) Extract(conversationID int64, messages []models.Message) []TopicCandidate {
	hits := make(map[int]*clusterHit)

	for _, msg := range messages {
		text := normalizeText(msg.Text)
		if text == "" {
			continue
		}

		counted := make(map[int]bool)
		for _, kwIdx := range e.matcher.Match([]byte(text)) {
			if kwIdx >= len(e.keywords) {
				continue
			}
			ci := e.kwCluster[kwIdx]

			hit := hits[ci]
			if hit == nil {
				hit = &clusterHit{matched: make(map[int]bool)}
				hits[ci] = hit
			}
			hit.matched[kwIdx] = true

			if !counted[ci] {
				counted[ci] = true
				hit.messages++
				if frag := fragment(msg.Text); frag != "" {
					hit.fragments = append(hit.fragments, frag)
				}
			}
		}
	}

	type scored struct {
		clusterIdx int
		candidate  TopicCandidate
	}

	results := make([]scored, 0, len(hits))
	for ci, hit := range hits {
		keywords := make([]string, 0, len(hit.matched))
		for ki := range e.keywords {
			if e.kwCluster[ki] == ci && hit.matched[ki] {
				keywords = append(keywords, e.keywords[ki])
			}
		}

		results = append(results, scored{
			clusterIdx: ci,
			candidate: TopicCandidate{
				Topic: models.Topic{
					ConversationID: conversationID,
					Name:           clusterTable[ci].name,
					Description:    fmt.Sprintf("Mentioned in %d of %d messages", hit.messages, len(messages)),
					Keywords:       keywords,
					MessageCount:   hit.messages,
				},
				Fragments: hit.fragments,
			},
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].candidate.Topic.MessageCount != results[j].candidate.Topic.MessageCount {
			return results[i].candidate.Topic.MessageCount > results[j].candidate.Topic.MessageCount
		}
		return results[i].clusterIdx < results[j].clusterIdx
	})

	candidates := make([]TopicCandidate, len(results))
	for i, r := range results {
		candidates[i] = r.candidate
	}

	e.logger.Info("topics extracted", map[string]interface{}{
		"conversationId": conversationID,
		"messages":       len(messages),
		"topics":         len(candidates),
	})
	return candidates
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// normalizeText lowercases and replaces every non-alphanumeric rune with a
// space, preserving word boundaries for the matcher.
func normalizeText(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}
