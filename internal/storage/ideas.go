// internal/storage/ideas.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/models"
)

const ideaColumns = `id, topic_id, title, target_user, value_prop, why_now, pricing_model,
		distribution_channel, moat, ops_burden_estimate, compliance_risks,
		total_score, score_breakdown, rank, created_at`

// CreateIdea inserts a business idea. Scores and ranks start unset.
func (s *Store) CreateIdea(ctx context.Context, idea *models.BusinessIdea) error {
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO business_ideas (topic_id, title, target_user, value_prop, why_now,
			pricing_model, distribution_channel, moat, ops_burden_estimate, compliance_risks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		idea.TopicID, idea.Title, idea.TargetUser, idea.ValueProp, idea.WhyNow,
		idea.PricingModel, idea.DistributionChannel, idea.Moat,
		string(idea.OpsBurdenEstimate), idea.ComplianceRisks, idea.CreatedAt,
	).Scan(&idea.ID)
	if err != nil {
		return commonerrors.NewDatabaseError("create idea", err)
	}

	s.logger.Info("idea stored", map[string]interface{}{
		"ideaId":  idea.ID,
		"topicId": idea.TopicID,
	})
	return nil
}

// GetIdea fetches an idea by ID
func (s *Store) GetIdea(ctx context.Context, id int64) (*models.BusinessIdea, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ideaColumns+` FROM business_ideas WHERE id = $1`, id)

	idea, err := scanIdea(row)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewNotFoundError("idea", id)
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseError("get idea", err)
	}
	return idea, nil
}

// ListIdeasOptions narrows idea listings
type ListIdeasOptions struct {
	TopicID    int64
	RankedOnly bool
	Limit      int
	Offset     int
}

// ListIdeas returns ideas. Ranked listings come back in rank order,
// unranked listings in creation order.
func (s *Store) ListIdeas(ctx context.Context, opts ListIdeasOptions) ([]models.BusinessIdea, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	query := `SELECT ` + ideaColumns + ` FROM business_ideas`
	args := []interface{}{}
	where := ""

	if opts.TopicID > 0 {
		args = append(args, opts.TopicID)
		where = fmt.Sprintf(" WHERE topic_id = $%d", len(args))
	}
	if opts.RankedOnly {
		if where == "" {
			where = " WHERE rank IS NOT NULL"
		} else {
			where += " AND rank IS NOT NULL"
		}
	}
	query += where
	if opts.RankedOnly {
		query += " ORDER BY rank ASC"
	} else {
		query += " ORDER BY id ASC"
	}
	args = append(args, opts.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list ideas", err)
	}
	defer rows.Close()

	return collectIdeas(rows)
}

// ListScoredIdeas returns every idea that has a total score, in creation order
func (s *Store) ListScoredIdeas(ctx context.Context) ([]models.BusinessIdea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ideaColumns+` FROM business_ideas WHERE total_score IS NOT NULL ORDER BY id ASC`)
	if err != nil {
		return nil, commonerrors.NewDatabaseError("list scored ideas", err)
	}
	defer rows.Close()

	return collectIdeas(rows)
}

// UpdateIdea replaces the descriptive fields of an idea
func (s *Store) UpdateIdea(ctx context.Context, idea *models.BusinessIdea) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE business_ideas
		SET title = $1, target_user = $2, value_prop = $3, why_now = $4, pricing_model = $5,
			distribution_channel = $6, moat = $7, ops_burden_estimate = $8, compliance_risks = $9
		WHERE id = $10`,
		idea.Title, idea.TargetUser, idea.ValueProp, idea.WhyNow, idea.PricingModel,
		idea.DistributionChannel, idea.Moat, string(idea.OpsBurdenEstimate),
		idea.ComplianceRisks, idea.ID)
	if err != nil {
		return commonerrors.NewDatabaseError("update idea", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("update idea", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("idea", idea.ID)
	}
	return nil
}

// UpdateIdeaScore persists a scoring result for one idea
func (s *Store) UpdateIdeaScore(ctx context.Context, id int64, total float64, breakdown map[string]float64) error {
	encoded, err := encodeJSON(breakdown)
	if err != nil {
		return commonerrors.NewDatabaseError("update idea score", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE business_ideas
		SET total_score = $1, score_breakdown = $2
		WHERE id = $3`,
		total, encoded, id)
	if err != nil {
		return commonerrors.NewDatabaseError("update idea score", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("update idea score", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("idea", id)
	}
	return nil
}

// ApplyRanks replaces the stored ranking in one transaction. Ideas outside
// the assignment list lose any previous rank.
func (s *Store) ApplyRanks(ctx context.Context, assignments []models.RankAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewDatabaseError("apply ranks", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE business_ideas SET rank = NULL`); err != nil {
		return commonerrors.NewDatabaseError("apply ranks", err)
	}

	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			`UPDATE business_ideas SET rank = $1 WHERE id = $2`, a.Rank, a.IdeaID); err != nil {
			return commonerrors.NewDatabaseError("apply ranks", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewDatabaseError("apply ranks", err)
	}

	s.logger.Info("ranking applied", map[string]interface{}{
		"ideas": len(assignments),
	})
	return nil
}

// DeleteIdea removes an idea and its evidence links
func (s *Store) DeleteIdea(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM business_ideas WHERE id = $1`, id)
	if err != nil {
		return commonerrors.NewDatabaseError("delete idea", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewDatabaseError("delete idea", err)
	}
	if affected == 0 {
		return commonerrors.NewNotFoundError("idea", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIdea(row rowScanner) (*models.BusinessIdea, error) {
	var idea models.BusinessIdea
	var opsBurden string
	var totalScore sql.NullFloat64
	var breakdown sql.NullString
	var rank sql.NullInt64

	err := row.Scan(&idea.ID, &idea.TopicID, &idea.Title, &idea.TargetUser, &idea.ValueProp,
		&idea.WhyNow, &idea.PricingModel, &idea.DistributionChannel, &idea.Moat,
		&opsBurden, &idea.ComplianceRisks, &totalScore, &breakdown, &rank, &idea.CreatedAt)
	if err != nil {
		return nil, err
	}

	idea.OpsBurdenEstimate = models.OpsBurden(opsBurden)
	if totalScore.Valid {
		idea.TotalScore = &totalScore.Float64
	}
	if breakdown.Valid {
		idea.ScoreBreakdown = decodeFloatMap(breakdown.String)
	}
	if rank.Valid {
		r := int(rank.Int64)
		idea.Rank = &r
	}
	return &idea, nil
}

func collectIdeas(rows *sql.Rows) ([]models.BusinessIdea, error) {
	ideas := []models.BusinessIdea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, commonerrors.NewDatabaseError("scan idea", err)
		}
		ideas = append(ideas, *idea)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDatabaseError("scan idea", err)
	}
	return ideas, nil
}
