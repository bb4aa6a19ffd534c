// internal/models/conversation.go
package models

import "time"

type Conversation struct {
	ID          int64     `json:"id"`
	SourceType  string    `json:"sourceType"`
	RawSummary  string    `json:"rawSummary"`
	RawTextHash string    `json:"rawTextHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversationId"`
	Speaker        string `json:"speaker,omitempty"`
	Text           string `json:"text"`
	Position       int    `json:"position"`
}
