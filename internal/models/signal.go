// internal/models/signal.go
package models

import (
	"fmt"
	"time"
)

// Source identifies one of the four demand-signal providers. The set is
// closed: dispatch happens over these constants, never over free-form
// strings.
type Source string

const (
	SourceTrends  Source = "trends"
	SourceForum   Source = "forum"
	SourceLinkAgg Source = "linkagg"
	SourceVideo   Source = "video"
)

// AllSources returns the connector sources in collection order.
func AllSources() []Source {
	return []Source{SourceTrends, SourceForum, SourceLinkAgg, SourceVideo}
}

// ParseSource validates a wire value against the closed source set.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceTrends, SourceForum, SourceLinkAgg, SourceVideo:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

func (s Source) Valid() bool {
	_, err := ParseSource(string(s))
	return err == nil
}

// MetricType classifies what a signal value measures. Connectors map their
// native metrics onto these four classes; the unit string keeps the native
// measurement name.
type MetricType string

const (
	MetricVolume     MetricType = "volume"
	MetricGrowthRate MetricType = "growth_rate"
	MetricEngagement MetricType = "engagement"
	MetricCount      MetricType = "count"
)

func ParseMetricType(s string) (MetricType, error) {
	switch MetricType(s) {
	case MetricVolume, MetricGrowthRate, MetricEngagement, MetricCount:
		return MetricType(s), nil
	}
	return "", fmt.Errorf("unknown metric type %q", s)
}

// RawSignal is a connector's view of one measurement, before it is bound to
// a topic and persisted.
type RawSignal struct {
	MetricType  MetricType `json:"metricType"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit"`
	URL         string     `json:"url"`
	CollectedAt time.Time  `json:"collectedAt"`
}

// DemandSignal is a persisted measurement with provenance. Rows are
// append-only; repeated collections accumulate history per
// (source, query, metricType, unit) series.
type DemandSignal struct {
	ID          int64      `json:"id"`
	TopicID     int64      `json:"topicId"`
	Source      Source     `json:"source"`
	Query       string     `json:"query"`
	MetricType  MetricType `json:"metricType"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit"`
	URL         string     `json:"url"`
	CollectedAt time.Time  `json:"collectedAt"`
}

// SeriesKey groups repeated collections of the same measurement.
func (s DemandSignal) SeriesKey() string {
	return string(s.Source) + "|" + s.Query + "|" + string(s.MetricType) + "|" + s.Unit
}

// SignalStats summarizes a topic's collected signals.
type SignalStats struct {
	SignalCount int        `json:"signalCount"`
	Sources     []string   `json:"sources"`
	AvgValue    float64    `json:"avgValue"`
	LatestAt    *time.Time `json:"latestAt,omitempty"`
}
