// internal/api/schemas.go
package api

// JSON schemas for request bodies. Validation runs before binding so a
// bad payload fails with field-level messages instead of a bind error.

const createConversationSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1},
		"source_type": {"type": "string", "maxLength": 100}
	},
	"additionalProperties": false
}`

const createTopicSchema = `{
	"type": "object",
	"required": ["conversation_id", "name"],
	"properties": {
		"conversation_id": {"type": "integer", "minimum": 1},
		"name": {"type": "string", "minLength": 1, "maxLength": 500},
		"description": {"type": "string"},
		"keywords": {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": false
}`

const collectSchema = `{
	"type": "object",
	"required": ["topic_id"],
	"properties": {
		"topic_id": {"type": "integer", "minimum": 1},
		"queries": {"type": "array", "items": {"type": "string", "minLength": 1}}
	},
	"additionalProperties": false
}`

const createIdeaSchema = `{
	"type": "object",
	"required": ["topic_id", "title"],
	"properties": {
		"topic_id": {"type": "integer", "minimum": 1},
		"title": {"type": "string", "minLength": 1, "maxLength": 500},
		"target_user": {"type": "string"},
		"value_prop": {"type": "string"},
		"why_now": {"type": "string"},
		"pricing_model": {"type": "string"},
		"distribution_channel": {"type": "string"},
		"moat": {"type": "string"},
		"ops_burden_estimate": {"type": "string", "enum": ["low", "medium", "high", ""]},
		"compliance_risks": {"type": "string"}
	},
	"additionalProperties": false
}`

const updateIdeaSchema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "minLength": 1, "maxLength": 500},
		"target_user": {"type": "string"},
		"value_prop": {"type": "string"},
		"why_now": {"type": "string"},
		"pricing_model": {"type": "string"},
		"distribution_channel": {"type": "string"},
		"moat": {"type": "string"},
		"ops_burden_estimate": {"type": "string", "enum": ["low", "medium", "high", ""]},
		"compliance_risks": {"type": "string"}
	},
	"additionalProperties": false
}`

const weightsSchema = `{
	"type": "object",
	"properties": {
		"demand_strength": {"type": "number", "minimum": 0},
		"demand_velocity": {"type": "number", "minimum": 0},
		"competition_proxy": {"type": "number", "minimum": 0},
		"feasibility": {"type": "number", "minimum": 0},
		"automation_friendly": {"type": "number", "minimum": 0},
		"monetization_clarity": {"type": "number", "minimum": 0}
	},
	"additionalProperties": false
}`

const scoreIdeaSchema = `{
	"type": "object",
	"properties": {
		"weights": ` + weightsSchema + `
	},
	"additionalProperties": false
}`

const rankIdeasSchema = `{
	"type": "object",
	"properties": {
		"topic_id": {"type": "integer", "minimum": 1},
		"weights": ` + weightsSchema + `
	},
	"additionalProperties": false
}`

const updateWeightsSchema = `{
	"type": "object",
	"required": ["demand_strength", "demand_velocity", "competition_proxy", "feasibility", "automation_friendly", "monetization_clarity"],
	"properties": {
		"demand_strength": {"type": "number", "minimum": 0},
		"demand_velocity": {"type": "number", "minimum": 0},
		"competition_proxy": {"type": "number", "minimum": 0},
		"feasibility": {"type": "number", "minimum": 0},
		"automation_friendly": {"type": "number", "minimum": 0},
		"monetization_clarity": {"type": "number", "minimum": 0}
	},
	"additionalProperties": false
}`

const addEvidenceSchema = `{
	"type": "object",
	"required": ["idea_id", "url"],
	"properties": {
		"idea_id": {"type": "integer", "minimum": 1},
		"url": {"type": "string", "minLength": 1},
		"title": {"type": "string"},
		"snippet": {"type": "string"},
		"source": {"type": "string"},
		"relevance_score": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"additionalProperties": false
}`

const minerRunSchema = `{
	"type": "object",
	"properties": {
		"feeds": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"limit": {"type": "integer", "minimum": 1, "maximum": 200}
	},
	"additionalProperties": false
}`
