// internal/models/idea.go
package models

import "time"

// OpsBurden is the qualitative operational-burden estimate on an idea.
// An empty value is treated as medium by the scorer.
type OpsBurden string

const (
	OpsBurdenLow    OpsBurden = "low"
	OpsBurdenMedium OpsBurden = "medium"
	OpsBurdenHigh   OpsBurden = "high"
)

func (o OpsBurden) Valid() bool {
	switch o {
	case OpsBurdenLow, OpsBurdenMedium, OpsBurdenHigh, "":
		return true
	}
	return false
}

type BusinessIdea struct {
	ID                  int64              `json:"id"`
	TopicID             int64              `json:"topicId"`
	Title               string             `json:"title"`
	TargetUser          string             `json:"targetUser,omitempty"`
	ValueProp           string             `json:"valueProp,omitempty"`
	WhyNow              string             `json:"whyNow,omitempty"`
	PricingModel        string             `json:"pricingModel,omitempty"`
	DistributionChannel string             `json:"distributionChannel,omitempty"`
	Moat                string             `json:"moat,omitempty"`
	OpsBurdenEstimate   OpsBurden          `json:"opsBurdenEstimate,omitempty"`
	ComplianceRisks     string             `json:"complianceRisks,omitempty"`
	TotalScore          *float64           `json:"totalScore,omitempty"`
	ScoreBreakdown      map[string]float64 `json:"scoreBreakdown,omitempty"`
	Rank                *int               `json:"rank,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
}

// RankAssignment pairs an idea with the position the ranker computed for it
type RankAssignment struct {
	IdeaID int64 `json:"ideaId"`
	Rank   int   `json:"rank"`
}

// ScoreResult is a complete scoring outcome. Breakdown always carries all
// six dimensions; Notes marks dimensions that fell back to a default for
// lack of data ("no signal data", "insufficient history", "undefined").
type ScoreResult struct {
	Total     float64            `json:"total"`
	Breakdown map[string]float64 `json:"breakdown"`
	Notes     map[string]string  `json:"notes,omitempty"`
}
