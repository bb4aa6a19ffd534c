// internal/ingest/queries.go
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxQueriesPerTopic = 10
	minFragmentRunes   = 12
	maxFragmentRunes   = 80
)

var queryTemplates = []string{
	"%s software",
	"%s tool",
	"best %s",
	"%s for small business",
}

// BuildQueries turns a topic candidate into search queries for the demand
// connectors. Template queries over the topic name come first, then message
// fragments, deduplicated case-insensitively and capped.
func BuildQueries(candidate TopicCandidate) []string {
	queries := make([]string, 0, maxQueriesPerTopic)
	seen := make(map[string]bool)

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || len(queries) >= maxQueriesPerTopic {
			return
		}
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		queries = append(queries, q)
	}

	name := strings.ToLower(strings.TrimSpace(candidate.Topic.Name))
	if name != "" {
		for _, tmpl := range queryTemplates {
			add(fmt.Sprintf(tmpl, name))
		}
	}
	for _, frag := range candidate.Fragments {
		add(frag)
	}
	return queries
}

// fragment reduces a message to a usable search query: lowercased, trailing
// punctuation dropped. Messages too short to mean anything or too long to be
// a query are skipped.
func fragment(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, " ?!.")

	if n := utf8.RuneCountInString(text); n < minFragmentRunes || n > maxFragmentRunes {
		return ""
	}
	return text
}
