// internal/connectors/connector.go
package connectors

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/database"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"golang.org/x/time/rate"
)

// Connector fetches raw demand signals for one search query from a single
// external source. Credentials, base URL, and rate limits bind at
// construction; Fetch must be safe for concurrent use. A connector never
// persists anything, it only reports what the source said.
type Connector interface {
	Source() models.Source
	Fetch(ctx context.Context, query string) ([]models.RawSignal, error)
}

// Registry holds exactly one connector per source. Construction decides
// live vs mock per source: mock when mock_mode is forced or the source's
// credential is missing. The link aggregator needs no credential, so it
// only mocks when forced.
type Registry struct {
	connectors map[models.Source]Connector
	logger     logger.Logger
}

func NewRegistry(cfg config.ConnectorsConfig, redis *database.RedisClient, log logger.Logger) *Registry {
	log = log.WithFields(map[string]interface{}{"component": "connectors"})
	timeout := time.Duration(cfg.Timeout) * time.Second

	var cache *Cache
	if cfg.CacheEnabled && redis != nil {
		cache = NewCache(redis, time.Duration(cfg.CacheTTL)*time.Second, log)
	}

	reg := &Registry{
		connectors: make(map[models.Source]Connector, 4),
		logger:     log,
	}

	build := func(source models.Source, hasCredential bool, live func() Connector) {
		if cfg.MockMode || !hasCredential {
			reg.connectors[source] = NewMock(source, log)
			log.Info("connector running in mock mode", map[string]interface{}{
				"source": string(source),
				"forced": cfg.MockMode,
			})
			return
		}
		c := live()
		if cache != nil {
			c = cache.Front(c)
		}
		reg.connectors[source] = c
	}

	build(models.SourceTrends, cfg.Trends.APIKey != "", func() Connector {
		return NewTrends(cfg.Trends, timeout, newLimiter(cfg), log)
	})
	build(models.SourceForum, cfg.Forum.ClientID != "" && cfg.Forum.ClientSecret != "", func() Connector {
		return NewForum(cfg.Forum, timeout, newLimiter(cfg), log)
	})
	build(models.SourceLinkAgg, true, func() Connector {
		return NewLinkAgg(cfg.LinkAgg, timeout, newLimiter(cfg), log)
	})
	build(models.SourceVideo, cfg.Video.APIKey != "", func() Connector {
		return NewVideo(cfg.Video, timeout, newLimiter(cfg), log)
	})

	return reg
}

// Get returns the connector for a source. The source set is closed, so an
// unknown value is a caller error, not a lookup miss.
func (r *Registry) Get(source models.Source) (Connector, error) {
	c, ok := r.connectors[source]
	if !ok {
		return nil, commonerrors.NewValidationError("unknown source: " + string(source))
	}
	return c, nil
}

// All returns the connectors in collection order.
func (r *Registry) All() []Connector {
	out := make([]Connector, 0, len(r.connectors))
	for _, source := range models.AllSources() {
		if c, ok := r.connectors[source]; ok {
			out = append(out, c)
		}
	}
	return out
}

// wrapFetchErr classifies an outbound failure: deadline and transport
// timeouts become CONNECTOR_TIMEOUT, everything else CONNECTOR_FAILED.
// Both are retryable from the caller's point of view.
func wrapFetchErr(source models.Source, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return commonerrors.NewConnectorTimeoutError(string(source))
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return commonerrors.NewConnectorTimeoutError(string(source))
	}
	return commonerrors.NewConnectorFailedError(string(source), err)
}

// newLimiter builds a per-connector limiter for outbound calls. Each live
// connector gets its own budget so one noisy source cannot starve another.
func newLimiter(cfg config.ConnectorsConfig) *rate.Limiter {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = rps
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
