// internal/ingest/queries_test.go
package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"demand-radar/internal/models"
)

func TestBuildQueries_TemplatesThenFragments(t *testing.T) {
	candidate := TopicCandidate{
		Topic: models.Topic{Name: "payments"},
		Fragments: []string{
			"invoices keep getting lost every month",
			"our billing tool cannot handle refunds",
		},
	}

	queries := BuildQueries(candidate)

	assert.Equal(t, []string{
		"payments software",
		"payments tool",
		"best payments",
		"payments for small business",
		"invoices keep getting lost every month",
		"our billing tool cannot handle refunds",
	}, queries)
}

func TestBuildQueries_DedupsCaseInsensitively(t *testing.T) {
	candidate := TopicCandidate{
		Topic:     models.Topic{Name: "Hiring"},
		Fragments: []string{"Best Hiring", "best hiring", "hiring tool"},
	}

	queries := BuildQueries(candidate)

	assert.Equal(t, []string{
		"hiring software",
		"hiring tool",
		"best hiring",
		"hiring for small business",
	}, queries)
}

func TestBuildQueries_CapsAtTen(t *testing.T) {
	fragments := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		fragments = append(fragments, fmt.Sprintf("distinct fragment number %d", i))
	}

	queries := BuildQueries(TopicCandidate{
		Topic:     models.Topic{Name: "operations"},
		Fragments: fragments,
	})

	assert.Len(t, queries, 10)
	assert.Equal(t, "operations software", queries[0])
	assert.Equal(t, "distinct fragment number 5", queries[9])
}

func TestBuildQueries_EmptyName(t *testing.T) {
	queries := BuildQueries(TopicCandidate{
		Topic:     models.Topic{Name: "  "},
		Fragments: []string{"a fragment long enough"},
	})

	assert.Equal(t, []string{"a fragment long enough"}, queries)
}

func TestFragment_Bounds(t *testing.T) {
	assert.Equal(t, "", fragment("too short"))
	assert.Equal(t, "how do we handle invoice reminders", fragment("How do we handle invoice reminders?"))
	assert.Equal(t, "", fragment("x "+fmt.Sprintf("%081d", 0)))
}
