// internal/connectors/connector_test.go
package connectors

import (
	"testing"

	"demand-radar/internal/common/config"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"github.com/stretchr/testify/assert"
)

func fullyCredentialed() config.ConnectorsConfig {
	return config.ConnectorsConfig{
		Timeout:      5,
		RateLimitRPS: 5,
		RateBurst:    10,
		Trends:       config.TrendsConfig{BaseURL: "https://trends.example.com", APIKey: "k"},
		Forum:        config.ForumConfig{BaseURL: "https://forum.example.com", ClientID: "id", ClientSecret: "secret"},
		LinkAgg:      config.LinkAggConfig{BaseURL: "https://hn.algolia.com/api/v1"},
		Video:        config.VideoConfig{BaseURL: "https://video.example.com", APIKey: "k"},
	}
}

// ==========================
// Registry Construction Tests
// ==========================

func TestNewRegistry_LiveWhenCredentialed(t *testing.T) {
	reg := NewRegistry(fullyCredentialed(), nil, logger.NewTestLogger(t))

	trends, err := reg.Get(models.SourceTrends)
	assert.NoError(t, err)
	assert.IsType(t, &TrendsConnector{}, trends)

	forum, err := reg.Get(models.SourceForum)
	assert.NoError(t, err)
	assert.IsType(t, &ForumConnector{}, forum)

	linkagg, err := reg.Get(models.SourceLinkAgg)
	assert.NoError(t, err)
	assert.IsType(t, &LinkAggConnector{}, linkagg)

	video, err := reg.Get(models.SourceVideo)
	assert.NoError(t, err)
	assert.IsType(t, &VideoConnector{}, video)
}

func TestNewRegistry_MockModeForced(t *testing.T) {
	cfg := fullyCredentialed()
	cfg.MockMode = true

	reg := NewRegistry(cfg, nil, logger.NewTestLogger(t))

	for _, source := range models.AllSources() {
		c, err := reg.Get(source)
		assert.NoError(t, err)
		assert.IsType(t, &MockConnector{}, c, "source %s", source)
		assert.Equal(t, source, c.Source())
	}
}

func TestNewRegistry_MissingCredentialsFallBackToMock(t *testing.T) {
	cfg := fullyCredentialed()
	cfg.Trends.APIKey = ""
	cfg.Forum.ClientSecret = ""
	cfg.Video.APIKey = ""

	reg := NewRegistry(cfg, nil, logger.NewTestLogger(t))

	trends, _ := reg.Get(models.SourceTrends)
	assert.IsType(t, &MockConnector{}, trends)

	forum, _ := reg.Get(models.SourceForum)
	assert.IsType(t, &MockConnector{}, forum)

	video, _ := reg.Get(models.SourceVideo)
	assert.IsType(t, &MockConnector{}, video)

	// No credential needed, so the reference connector stays live.
	linkagg, _ := reg.Get(models.SourceLinkAgg)
	assert.IsType(t, &LinkAggConnector{}, linkagg)
}

// ==========================
// Dispatch Tests
// ==========================

func TestRegistry_Get_UnknownSource(t *testing.T) {
	reg := NewRegistry(fullyCredentialed(), nil, logger.NewTestLogger(t))

	_, err := reg.Get(models.Source("usenet"))

	assert.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeValidationFailed))
}

func TestRegistry_All_CollectionOrder(t *testing.T) {
	reg := NewRegistry(fullyCredentialed(), nil, logger.NewTestLogger(t))

	all := reg.All()

	assert.Len(t, all, 4)
	sources := make([]models.Source, 0, len(all))
	for _, c := range all {
		sources = append(sources, c.Source())
	}
	assert.Equal(t, models.AllSources(), sources)
}
