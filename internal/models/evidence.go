// internal/models/evidence.go
package models

import "time"

type EvidenceLink struct {
	ID             int64     `json:"id"`
	IdeaID         int64     `json:"ideaId"`
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	Snippet        string    `json:"snippet,omitempty"`
	Source         string    `json:"source,omitempty"`
	RelevanceScore float64   `json:"relevanceScore"`
	CreatedAt      time.Time `json:"createdAt"`
}
