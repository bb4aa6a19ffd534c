// internal/storage/topics.go
package storage

import (
	"context"
	"database/sql"
	"time"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

// CreateTopic inserts a single topic
func (s *Store) CreateTopic(ctx context.Context, topic *models.Topic) error {
	keywords, err := encodeJSON(topic.Keywords)
	if err != nil {
		return commonerrors.NewDatabaseError("create topic", err)
	}
	if keywords == "" {
		keywords = "[]"
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO topics (conversation_id, name, description, keywords, message_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		topic.ConversationID, topic.Name, topic.Description, keywords, topic.MessageCount, topic.CreatedAt,
	).Scan(&topic.ID)
	if err != nil {
		return commonerrors.NewDatabaseError("create topic", err)
	}
	return nil
}

// CreateTopics inserts extracted topics in one transaction
func (s *Store) CreateTopics(ctx context.Context, topics []models.Topic) ([]models.Topic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("create topics", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range topics {
		keywords, err := encodeJSON(topics[i].Keywords)
		if err != nil {
			return nil, commonerrors.NewDatabaseError("create topics", err)
		}
		if keywords == "" {
			keywords = "[]"
		}
		if topics[i].CreatedAt.IsZero() {
			topics[i].CreatedAt = now
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO topics (conversation_id, name, description, keywords, message_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			topics[i].ConversationID, topics[i].Name, topics[i].Description, keywords,
			topics[i].MessageCount, topics[i].CreatedAt,
		).Scan(&topics[i].ID)
		if err != nil {
			return nil, commonerrors.NewDatabaseError("create topics", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, commonerrors.NewDatabaseError("create topics", err)
	}

	s.logger.Info("topics stored", map[string]interface{}{
		"count": len(topics),
	})
	return topics, nil
}

// GetTopic fetches a topic by ID
func (s *Store) GetTopic(ctx context.Context, id int64) (*models.Topic, error) {
	var topic models.Topic
	var keywords string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, name, description, keywords, message_count, created_at
		FROM topics
		WHERE id = $1`, id,
	).Scan(&topic.ID, &topic.ConversationID, &topic.Name, &topic.Description,
		&keywords, &topic.MessageCount, &topic.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewNotFoundError("topic", id)
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseError("get topic", err)
	}
	topic.Keywords = decodeStringSlice(keywords)
	return &topic, nil
}

// ListTopics returns topics, optionally restricted to one conversation
func (s *Store) ListTopics(ctx context.Context, conversationID int64, limit, offset int) ([]models.Topic, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if conversationID > 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, conversation_id, name, description, keywords, message_count, created_at
			FROM topics
			WHERE conversation_id = $1
			ORDER BY id ASC
			LIMIT $2 OFFSET $3`, conversationID, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, conversation_id, name, description, keywords, message_count, created_at
			FROM topics
			ORDER BY id ASC
			LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list topics", err)
	}
	defer rows.Close()

	topics := []models.Topic{}
	for rows.Next() {
		var topic models.Topic
		var keywords string
		if err := rows.Scan(&topic.ID, &topic.ConversationID, &topic.Name, &topic.Description,
			&keywords, &topic.MessageCount, &topic.CreatedAt); err != nil {
			return nil, commonerrors.NewDatabaseError("list topics", err)
		}
		topic.Keywords = decodeStringSlice(keywords)
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("list topics", err)
	}
	return topics, nil
}

// DeleteTopic removes a topic and its signals, ideas and evidence
func (s *Store) DeleteTopic(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return commonerrors.NewDatabaseError("delete topic", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("delete topic", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("topic", id)
	}
	return nil
}
