// internal/scoring/engine.go
package scoring

import (
	"math"
	"sort"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
)

// Engine computes the six-dimension score for a business idea. Scoring is
// pure: the engine reads nothing but its arguments and persists nothing.
// Weights always arrive explicitly from the caller.
type Engine struct {
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewEngine(log logger.Logger) *Engine {
	scoped := log.WithFields(map[string]interface{}{"component": "scoring"})
	return &Engine{
		logger: scoped,
		errs:   commonerrors.NewErrorHandler(scoped),
	}
}

// Score produces the weighted total and per-dimension breakdown for one
// idea against its topic's signal history. The total is the weighted sum
// renormalized by the weight sum, so weights need not add up to 1.0.
// All-zero weights are a legal degenerate case: total 0, every dimension
// marked undefined. A negative weight aborts the call.
func (e *Engine) Score(idea *models.BusinessIdea, signals []models.DemandSignal, weights models.WeightConfig) (*models.ScoreResult, error) {
	if err := weights.Validate(); err != nil {
		return nil, commonerrors.NewInvalidConfigurationError(err.Error())
	}

	result := &models.ScoreResult{
		Breakdown: make(map[string]float64, 6),
		Notes:     make(map[string]string),
	}

	if weights.Sum() == 0 {
		e.logger.Warn("all weights are zero, score is undefined", map[string]interface{}{
			"idea_id": idea.ID,
		})
		for _, dim := range models.Dimensions() {
			result.Breakdown[dim] = 0
			result.Notes[dim] = "undefined"
		}
		return result, nil
	}

	// Demand strength is the only dimension without a neutral fallback; an
	// empty history zeroes it.
	if len(signals) == 0 {
		e.errs.HandleRecovered("score idea", commonerrors.NewMissingDataError(models.DimDemandStrength))
	}

	strength, strengthNote := demandStrength(signals)
	velocity, velocityNote := demandVelocity(signals)
	competition, competitionNote := competitionProxy(signals, strength)

	subScores := map[string]float64{
		models.DimDemandStrength:      strength,
		models.DimDemandVelocity:      velocity,
		models.DimCompetitionProxy:    competition,
		models.DimFeasibility:         feasibility(idea),
		models.DimAutomationFriendly:  automationFriendly(idea),
		models.DimMonetizationClarity: monetizationClarity(idea),
	}
	for dim, note := range map[string]string{
		models.DimDemandStrength:   strengthNote,
		models.DimDemandVelocity:   velocityNote,
		models.DimCompetitionProxy: competitionNote,
	} {
		if note != "" {
			result.Notes[dim] = note
		}
	}

	byDim := weights.ByDimension()
	var weighted float64
	for _, dim := range models.Dimensions() {
		result.Breakdown[dim] = round2(subScores[dim])
		weighted += subScores[dim] * byDim[dim]
	}
	result.Total = round2(weighted / weights.Sum())

	return result, nil
}

// ==========================
// Sub-scorers
// ==========================

// demandStrength saturates logarithmically so raw volume has diminishing
// returns: an average of ~22000 across series already hits the cap.
func demandStrength(signals []models.DemandSignal) (float64, string) {
	if len(signals) == 0 {
		return 0, "no signal data"
	}

	var volumes []float64
	for _, s := range latestPerSeries(signals) {
		if s.MetricType == models.MetricVolume {
			volumes = append(volumes, s.Value)
		}
	}
	if len(volumes) == 0 {
		return 50, "no volume series"
	}

	return math.Min(100, math.Log1p(mean(volumes))*10), ""
}

// demandVelocity maps percent growth onto the score range: 0% sits at the
// 50 midpoint, +100% at 100, -100% at 0. Sources that report growth
// directly win; otherwise the slope between the two most recent points of
// each series stands in.
func demandVelocity(signals []models.DemandSignal) (float64, string) {
	if len(signals) == 0 {
		return 50, "insufficient history"
	}

	var growth []float64
	for _, s := range latestPerSeries(signals) {
		if s.MetricType == models.MetricGrowthRate {
			growth = append(growth, s.Value)
		}
	}
	if len(growth) > 0 {
		return clamp(50+mean(growth)/2, 0, 100), ""
	}

	bySeries := make(map[string][]models.DemandSignal)
	for _, s := range signals {
		if s.MetricType == models.MetricGrowthRate {
			continue
		}
		bySeries[s.SeriesKey()] = append(bySeries[s.SeriesKey()], s)
	}

	var changes []float64
	for _, series := range bySeries {
		if len(series) < 2 {
			continue
		}
		sort.Slice(series, func(i, j int) bool {
			if series[i].CollectedAt.Equal(series[j].CollectedAt) {
				return series[i].ID < series[j].ID
			}
			return series[i].CollectedAt.Before(series[j].CollectedAt)
		})
		prev := series[len(series)-2]
		last := series[len(series)-1]
		if prev.Value == 0 {
			continue
		}
		changes = append(changes, (last.Value-prev.Value)/prev.Value*100)
	}
	if len(changes) == 0 {
		return 50, "insufficient history"
	}

	return clamp(50+mean(changes)/2, 0, 100), ""
}

// competitionProxy inverts apparent saturation. Competing-mention counts
// (the link aggregator's "Show HN" probe) dominate when present; otherwise
// the demand-strength score stands in: very popular topics score as
// contested, quiet ones as underserved.
func competitionProxy(signals []models.DemandSignal, strengthScore float64) (float64, string) {
	if len(signals) == 0 {
		return 65, "no signal data"
	}

	var counts []float64
	for _, s := range latestPerSeries(signals) {
		if s.MetricType == models.MetricCount {
			counts = append(counts, s.Value)
		}
	}
	if len(counts) > 0 && mean(counts) > 5 {
		return 30, ""
	}

	switch {
	case strengthScore > 80:
		return 50, ""
	case strengthScore < 30:
		return 80, ""
	default:
		return 65, ""
	}
}

func feasibility(idea *models.BusinessIdea) float64 {
	score := burdenScore(idea.OpsBurdenEstimate, 85, 65, 40)
	if idea.DistributionChannel != "" {
		score += 10
	}
	if idea.ComplianceRisks != "" {
		score -= 15
	}
	return clamp(score, 0, 100)
}

func automationFriendly(idea *models.BusinessIdea) float64 {
	return burdenScore(idea.OpsBurdenEstimate, 90, 60, 30)
}

// monetizationClarity needs both a way to charge and a way to reach
// buyers: both present scores 90, one alone 50, neither 0.
func monetizationClarity(idea *models.BusinessIdea) float64 {
	hasPricing := idea.PricingModel != ""
	hasChannel := idea.DistributionChannel != ""

	switch {
	case hasPricing && hasChannel:
		return 90
	case hasPricing || hasChannel:
		return 50
	default:
		return 0
	}
}

// ==========================
// Helpers
// ==========================

// latestPerSeries keeps the most recent point of every
// (source, query, metric_type, unit) series, ties going to the higher id.
func latestPerSeries(signals []models.DemandSignal) map[string]models.DemandSignal {
	latest := make(map[string]models.DemandSignal)
	for _, s := range signals {
		key := s.SeriesKey()
		prev, ok := latest[key]
		if !ok || s.CollectedAt.After(prev.CollectedAt) ||
			(s.CollectedAt.Equal(prev.CollectedAt) && s.ID > prev.ID) {
			latest[key] = s
		}
	}
	return latest
}

func burdenScore(burden models.OpsBurden, low, medium, high float64) float64 {
	switch burden {
	case models.OpsBurdenLow:
		return low
	case models.OpsBurdenHigh:
		return high
	default:
		return medium
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
