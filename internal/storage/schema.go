// internal/storage/schema.go
package storage

import (
	"context"

	commonerrors "demand-radar/internal/common/errors"
)

// Child rows are removed with their parent: dropping a conversation takes
// its topics, signals, ideas and evidence with it.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id BIGSERIAL PRIMARY KEY,
		source_type TEXT NOT NULL DEFAULT 'manual',
		raw_summary TEXT NOT NULL,
		raw_text_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		speaker TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		position INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '[]',
		message_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS demand_signals (
		id BIGSERIAL PRIMARY KEY,
		topic_id BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		query TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		collected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS business_ideas (
		id BIGSERIAL PRIMARY KEY,
		topic_id BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		target_user TEXT NOT NULL DEFAULT '',
		value_prop TEXT NOT NULL DEFAULT '',
		why_now TEXT NOT NULL DEFAULT '',
		pricing_model TEXT NOT NULL DEFAULT '',
		distribution_channel TEXT NOT NULL DEFAULT '',
		moat TEXT NOT NULL DEFAULT '',
		ops_burden_estimate TEXT NOT NULL DEFAULT '',
		compliance_risks TEXT NOT NULL DEFAULT '',
		total_score DOUBLE PRECISION,
		score_breakdown TEXT,
		rank INT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evidence_links (
		id BIGSERIAL PRIMARY KEY,
		idea_id BIGINT NOT NULL REFERENCES business_ideas(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_conversation ON topics(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_topic ON demand_signals(topic_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_series ON demand_signals(topic_id, source, query, metric_type, unit, collected_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_topic ON business_ideas(topic_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_rank ON business_ideas(rank)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_idea ON evidence_links(idea_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY,
		source_type TEXT NOT NULL DEFAULT 'manual',
		raw_summary TEXT NOT NULL,
		raw_text_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		speaker TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '[]',
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS demand_signals (
		id INTEGER PRIMARY KEY,
		topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		query TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		collected_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS business_ideas (
		id INTEGER PRIMARY KEY,
		topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		target_user TEXT NOT NULL DEFAULT '',
		value_prop TEXT NOT NULL DEFAULT '',
		why_now TEXT NOT NULL DEFAULT '',
		pricing_model TEXT NOT NULL DEFAULT '',
		distribution_channel TEXT NOT NULL DEFAULT '',
		moat TEXT NOT NULL DEFAULT '',
		ops_burden_estimate TEXT NOT NULL DEFAULT '',
		compliance_risks TEXT NOT NULL DEFAULT '',
		total_score REAL,
		score_breakdown TEXT,
		rank INTEGER,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evidence_links (
		id INTEGER PRIMARY KEY,
		idea_id INTEGER NOT NULL REFERENCES business_ideas(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		relevance_score REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_conversation ON topics(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_topic ON demand_signals(topic_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_series ON demand_signals(topic_id, source, query, metric_type, unit, collected_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_topic ON business_ideas(topic_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_rank ON business_ideas(rank)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_idea ON evidence_links(idea_id)`,
}

// Migrate creates the schema for the active dialect
func (s *Store) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if s.driver == DriverSQLite {
		stmts = sqliteSchema
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return commonerrors.NewDatabaseError("migrate", err)
		}
	}

	s.logger.Info("schema migrated", map[string]interface{}{
		"driver":     s.driver,
		"statements": len(stmts),
	})
	return nil
}
