// internal/storage/conversations.go
package storage

import (
	"context"
	"database/sql"
	"time"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

// CreateConversation inserts a conversation and its messages in one transaction
func (s *Store) CreateConversation(ctx context.Context, conv *models.Conversation, messages []models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewDatabaseError("create conversation", err)
	}
	defer tx.Rollback()

	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	if conv.SourceType == "" {
		conv.SourceType = "manual"
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO conversations (source_type, raw_summary, raw_text_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		conv.SourceType, conv.RawSummary, conv.RawTextHash, conv.CreatedAt,
	).Scan(&conv.ID)
	if err != nil {
		return commonerrors.NewDatabaseError("create conversation", err)
	}

	for i := range messages {
		messages[i].ConversationID = conv.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO messages (conversation_id, speaker, body, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			messages[i].ConversationID, messages[i].Speaker, messages[i].Text, messages[i].Position,
		).Scan(&messages[i].ID)
		if err != nil {
			return commonerrors.NewDatabaseError("create conversation message", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewDatabaseError("create conversation", err)
	}

	s.logger.Info("conversation stored", map[string]interface{}{
		"conversationId": conv.ID,
		"messages":       len(messages),
	})
	return nil
}

// GetConversation fetches a conversation by ID
func (s *Store) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_type, raw_summary, raw_text_hash, created_at
		FROM conversations
		WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.SourceType, &conv.RawSummary, &conv.RawTextHash, &conv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewNotFoundError("conversation", id)
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseError("get conversation", err)
	}
	return &conv, nil
}

// ListConversations returns conversations most recent first
func (s *Store) ListConversations(ctx context.Context, limit, offset int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_type, raw_summary, raw_text_hash, created_at
		FROM conversations
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list conversations", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.SourceType, &conv.RawSummary, &conv.RawTextHash, &conv.CreatedAt); err != nil {
			return nil, commonerrors.NewDatabaseError("list conversations", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("list conversations", err)
	}
	return conversations, nil
}

// GetMessages returns the messages of a conversation in original order
func (s *Store) GetMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, speaker, body, position
		FROM messages
		WHERE conversation_id = $1
		ORDER BY position ASC`, conversationID)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("get messages", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Speaker, &msg.Text, &msg.Position); err != nil {
			return nil, commonerrors.NewDatabaseError("get messages", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("get messages", err)
	}
	return messages, nil
}

// DeleteConversation removes a conversation and everything derived from it
func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return commonerrors.NewDatabaseError("delete conversation", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("delete conversation", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("conversation", id)
	}

	s.logger.Info("conversation deleted", map[string]interface{}{
		"conversationId": id,
	})
	return nil
}
