// internal/models/topic.go
package models

import "time"

type Topic struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Keywords       []string  `json:"keywords"`
	MessageCount   int       `json:"messageCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
