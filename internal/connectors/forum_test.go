// internal/connectors/forum_test.go
package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestForumConnector_Fetch_MapsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.Equal(t, "visa tracker", r.URL.Query().Get("q"))

		w.Write([]byte(`{
			"posts": [
				{"title": "a", "ups": 40, "num_comments": 12, "url": "https://forum.example.com/a"},
				{"title": "b", "ups": 20, "num_comments": 8, "url": "https://forum.example.com/b"}
			]
		}`))
	}))
	defer server.Close()

	connector := NewForum(
		config.ForumConfig{BaseURL: server.URL, ClientID: "client-id", ClientSecret: "client-secret"},
		5*time.Second,
		rate.NewLimiter(rate.Inf, 1),
		logger.NewTestLogger(t),
	)

	signals, err := connector.Fetch(context.Background(), "visa tracker")

	assert.NoError(t, err)
	assert.Len(t, signals, 3)

	assert.Equal(t, models.MetricVolume, signals[0].MetricType)
	assert.Equal(t, "posts", signals[0].Unit)
	assert.InDelta(t, 2.0, signals[0].Value, 0.001)

	assert.Equal(t, "comments", signals[1].Unit)
	assert.InDelta(t, 20.0, signals[1].Value, 0.001)

	assert.Equal(t, "avg_upvotes", signals[2].Unit)
	assert.InDelta(t, 30.0, signals[2].Value, 0.001)

	assert.Equal(t, "https://forum.example.com/a", signals[0].URL)
}

func TestForumConnector_Fetch_NoPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"posts": []}`))
	}))
	defer server.Close()

	connector := NewForum(
		config.ForumConfig{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"},
		5*time.Second,
		rate.NewLimiter(rate.Inf, 1),
		logger.NewTestLogger(t),
	)

	signals, err := connector.Fetch(context.Background(), "nothing")

	assert.NoError(t, err)
	assert.Empty(t, signals)
}
