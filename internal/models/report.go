// internal/models/report.go
package models

// PipelineStats counts what the pipeline has accumulated so far
type PipelineStats struct {
	Conversations int64 `json:"conversations"`
	Topics        int64 `json:"topics"`
	Signals       int64 `json:"signals"`
	Ideas         int64 `json:"ideas"`
	ScoredIdeas   int64 `json:"scoredIdeas"`
	RankedIdeas   int64 `json:"rankedIdeas"`
	EvidenceLinks int64 `json:"evidenceLinks"`
}
