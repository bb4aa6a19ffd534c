// internal/models/weights.go
package models

import "fmt"

// Dimension names used in weight configs and score breakdowns. The JSON keys
// below are part of the external contract and stay snake_case.
const (
	DimDemandStrength      = "demand_strength"
	DimDemandVelocity      = "demand_velocity"
	DimCompetitionProxy    = "competition_proxy"
	DimFeasibility         = "feasibility"
	DimAutomationFriendly  = "automation_friendly"
	DimMonetizationClarity = "monetization_clarity"
)

// Dimensions lists the six scoring dimensions in breakdown order.
func Dimensions() []string {
	return []string{
		DimDemandStrength,
		DimDemandVelocity,
		DimCompetitionProxy,
		DimFeasibility,
		DimAutomationFriendly,
		DimMonetizationClarity,
	}
}

// WeightConfig maps the six fixed dimensions to non-negative weights. It is
// always passed explicitly into scoring calls; nothing reads weights from
// ambient state. Weights need not sum to 1.0 since the engine renormalizes
// by the sum.
type WeightConfig struct {
	DemandStrength      float64 `json:"demand_strength" yaml:"demand_strength" mapstructure:"demand_strength"`
	DemandVelocity      float64 `json:"demand_velocity" yaml:"demand_velocity" mapstructure:"demand_velocity"`
	CompetitionProxy    float64 `json:"competition_proxy" yaml:"competition_proxy" mapstructure:"competition_proxy"`
	Feasibility         float64 `json:"feasibility" yaml:"feasibility" mapstructure:"feasibility"`
	AutomationFriendly  float64 `json:"automation_friendly" yaml:"automation_friendly" mapstructure:"automation_friendly"`
	MonetizationClarity float64 `json:"monetization_clarity" yaml:"monetization_clarity" mapstructure:"monetization_clarity"`
}

// DefaultWeights returns the shipped weight profile.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		DemandStrength:      0.25,
		DemandVelocity:      0.20,
		CompetitionProxy:    0.15,
		Feasibility:         0.20,
		AutomationFriendly:  0.10,
		MonetizationClarity: 0.10,
	}
}

// ByDimension returns the weights keyed by dimension name, in Dimensions()
// order when iterated through that slice.
func (w WeightConfig) ByDimension() map[string]float64 {
	return map[string]float64{
		DimDemandStrength:      w.DemandStrength,
		DimDemandVelocity:      w.DemandVelocity,
		DimCompetitionProxy:    w.CompetitionProxy,
		DimFeasibility:         w.Feasibility,
		DimAutomationFriendly:  w.AutomationFriendly,
		DimMonetizationClarity: w.MonetizationClarity,
	}
}

// Sum returns the total of all six weights.
func (w WeightConfig) Sum() float64 {
	return w.DemandStrength + w.DemandVelocity + w.CompetitionProxy +
		w.Feasibility + w.AutomationFriendly + w.MonetizationClarity
}

// Validate rejects negative weights. A zero sum is legal and handled by the
// engine as the degenerate all-zero case.
func (w WeightConfig) Validate() error {
	for dim, weight := range w.ByDimension() {
		if weight < 0 {
			return fmt.Errorf("weight %s is negative (%v)", dim, weight)
		}
	}
	return nil
}
