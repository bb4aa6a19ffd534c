// internal/miner/mock.go
package miner

import (
	"fmt"
	"hash/fnv"
	"time"
)

// mockTitles are the synthetic pain posts used when no feed is configured.
// Every title hits at least one pain phrase so the mock run exercises the
// same matcher path as a live one.
var mockTitles = []string{
	"How do I keep track of client invoices without a spreadsheet",
	"Struggling with onboarding paperwork for every new hire",
	"Is there a tool that reminds customers about unpaid bills",
	"Tired of copying meeting notes into three different apps",
	"What do you use for scheduling field technicians",
	"Fed up with chasing timesheet approvals every week",
	"Manually reconciling payouts is eating my weekends",
	"Looking for a tool to summarize long email threads",
}

// mockResult builds a deterministic post list so a run with no feeds still
// produces usable queries. URLs are keyed off a per-title hash the same way
// the connector mocks key theirs.
func (m *Miner) mockResult(limit int) *Result {
	now := time.Now().UTC()

	count := len(mockTitles)
	if count > limit {
		count = limit
	}

	posts := make([]PainPost, 0, count)
	for i := 0; i < count; i++ {
		title := mockTitles[i]
		posts = append(posts, PainPost{
			Title:       title,
			URL:         fmt.Sprintf("https://example.com/mock/miner/%d", mockPostHash(title)),
			Feed:        "mock",
			Phrases:     m.matchPhrases(title),
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	return &Result{
		Scanned: len(mockTitles),
		Posts:   posts,
		Queries: suggestQueries(posts, limit),
		Mock:    true,
	}
}

func mockPostHash(title string) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "miner:%s", title)
	return h.Sum32()
}
