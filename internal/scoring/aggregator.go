package scoring

import (
	"math"

	"github.com/terrasift/terrasift/internal/fuzzy"
)

// MembershipResult captures one criterion's contribution to a site's score.
type MembershipResult struct {
	CriterionID string  `json:"criterion_id"`
	Importance  string  `json:"importance"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Matched     bool    `json:"matched"`
}

// Breakdown is the per-site scoring record: which criteria matched, their
// membership values, the modifier contribution and the worst critical
// membership. It is produced for the final top-N only.
type Breakdown struct {
	Criticals      []MembershipResult `json:"criticals,omitempty"`
	Preferreds     []MembershipResult `json:"preferreds,omitempty"`
	CriticalScore  float64            `json:"critical_score"`
	WorstCritical  float64            `json:"worst_critical"`
	PreferredScore float64            `json:"preferred_score"`
	ModifierSum    float64            `json:"modifier_sum"`
	ModifierScore  float64            `json:"modifier_score"`
	Penalty        float64            `json:"penalty"`
	FinalScore     float64            `json:"final_score"`
}

// Aggregator blends per-criterion memberships into one score per site.
type Aggregator struct {
	params Params
	lc     float64
	lp     float64
	lm     float64
}

// NewAggregator fixes the group weights for the active criterion counts of
// the tier being evaluated. A new aggregator is built per tier so that the
// weights always describe the configuration that produced the result.
func NewAggregator(params Params, criticals, preferreds int) *Aggregator {
	a := &Aggregator{params: params}
	a.lc, a.lp, a.lm = params.GroupWeights(criticals, preferreds)
	return a
}

// Score computes the final score and full breakdown for one site.
//
//	penalty = floor + (1-floor) * worst^sharpness
//	final   = clamp01(penalty * (λc*Sc + λp*Sp + λm*Sm))
//
// A single worst critical miss crushes the score even when the critical
// mean is high; that gate is intentional and must not be averaged away.
func (a *Aggregator) Score(criticals, preferreds []MembershipResult, modifierSum float64) Breakdown {
	b := Breakdown{
		Criticals:   criticals,
		Preferreds:  preferreds,
		ModifierSum: modifierSum,
	}

	// Absent criticals never penalize.
	b.CriticalScore = 1.0
	b.WorstCritical = 1.0
	if len(criticals) > 0 {
		b.CriticalScore = weightedMean(criticals)
		worst := math.Inf(1)
		for _, m := range criticals {
			if m.Value < worst {
				worst = m.Value
			}
		}
		b.WorstCritical = fuzzy.Clamp01(worst)
	}

	b.PreferredScore = 0.0
	if len(preferreds) > 0 {
		b.PreferredScore = weightedMean(preferreds)
	}

	b.ModifierScore = fuzzy.Sigmoid(modifierSum * a.params.ModifierScale)

	b.Penalty = a.params.PenaltyFloor +
		(1-a.params.PenaltyFloor)*math.Pow(b.WorstCritical, a.params.PenaltySharpness)

	blended := a.lc*b.CriticalScore + a.lp*b.PreferredScore + a.lm*b.ModifierScore
	b.FinalScore = fuzzy.Clamp01(b.Penalty * blended)
	return b
}

func weightedMean(ms []MembershipResult) float64 {
	var sum, total float64
	for _, m := range ms {
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		sum += fuzzy.Clamp01(m.Value) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return fuzzy.Clamp01(sum / total)
}
