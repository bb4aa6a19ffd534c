// internal/storage/evidence.go
package storage

import (
	"context"
	"database/sql"
	"time"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

// AddEvidence attaches a supporting link to an idea
func (s *Store) AddEvidence(ctx context.Context, link *models.EvidenceLink) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO evidence_links (idea_id, url, title, snippet, source, relevance_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		link.IdeaID, link.URL, link.Title, link.Snippet,
		link.Source, link.RelevanceScore, link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		return commonerrors.NewDatabaseError("add evidence", err)
	}
	return nil
}

// GetEvidence fetches an evidence link by ID
func (s *Store) GetEvidence(ctx context.Context, id int64) (*models.EvidenceLink, error) {
	var link models.EvidenceLink
	err := s.db.QueryRowContext(ctx, `
		SELECT id, idea_id, url, title, snippet, source, relevance_score, created_at
		FROM evidence_links
		WHERE id = $1`, id,
	).Scan(&link.ID, &link.IdeaID, &link.URL, &link.Title, &link.Snippet,
		&link.Source, &link.RelevanceScore, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewNotFoundError("evidence link", id)
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseError("get evidence", err)
	}
	return &link, nil
}

// ListEvidenceByIdea returns an idea's evidence, most relevant first
func (s *Store) ListEvidenceByIdea(ctx context.Context, ideaID int64, limit int) ([]models.EvidenceLink, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idea_id, url, title, snippet, source, relevance_score, created_at
		FROM evidence_links
		WHERE idea_id = $1
		ORDER BY relevance_score DESC, id ASC
		LIMIT $2`, ideaID, limit)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list evidence", err)
	}
	defer rows.Close()

	links := []models.EvidenceLink{}
	for rows.Next() {
		var link models.EvidenceLink
		if err := rows.Scan(&link.ID, &link.IdeaID, &link.URL, &link.Title, &link.Snippet,
			&link.Source, &link.RelevanceScore, &link.CreatedAt); err != nil {
			return nil, commonerrors.NewDatabaseError("list evidence", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("list evidence", err)
	}
	return links, nil
}

// DeleteEvidence removes a single evidence link
func (s *Store) DeleteEvidence(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evidence_links WHERE id = $1`, id)
	if err != nil {
		return commonerrors.NewDatabaseError("delete evidence", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("delete evidence", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("evidence link", id)
	}
	return nil
}
