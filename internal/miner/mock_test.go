// internal/miner/mock_test.go
package miner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"demand-radar/internal/common/config"
)

func TestMiner_MockWhenNoFeedsConfigured(t *testing.T) {
	m := newTestMiner(t, config.MinerConfig{MaxQueries: 25, Timeout: 5})

	result, err := m.Run(context.Background(), nil, 0)

	assert.NoError(t, err)
	assert.True(t, result.Mock)
	assert.Equal(t, len(mockTitles), result.Scanned)
	assert.Len(t, result.Posts, len(mockTitles))

	for _, post := range result.Posts {
		assert.NotEmpty(t, post.Phrases, "mock title %q should hit a pain phrase", post.Title)
		assert.True(t, strings.HasPrefix(post.URL, "https://example.com/mock/miner/"))
		assert.Equal(t, "mock", post.Feed)
	}

	assert.Equal(t, "keep track of client invoices without a spreadsheet", result.Queries[0])
}

func TestMiner_MockIsDeterministic(t *testing.T) {
	m := newTestMiner(t, config.MinerConfig{MaxQueries: 25, Timeout: 5})

	first, err := m.Run(context.Background(), nil, 0)
	assert.NoError(t, err)
	second, err := m.Run(context.Background(), nil, 0)
	assert.NoError(t, err)

	assert.Equal(t, len(first.Posts), len(second.Posts))
	for i := range first.Posts {
		assert.Equal(t, first.Posts[i].URL, second.Posts[i].URL)
		assert.Equal(t, first.Posts[i].Title, second.Posts[i].Title)
	}
	assert.Equal(t, first.Queries, second.Queries)
}

func TestMiner_MockHonorsLimit(t *testing.T) {
	m := newTestMiner(t, config.MinerConfig{MaxQueries: 25, Timeout: 5})

	result, err := m.Run(context.Background(), nil, 3)

	assert.NoError(t, err)
	assert.True(t, result.Mock)
	assert.Len(t, result.Posts, 3)
	assert.Len(t, result.Queries, 3)
}
