package scoring

import (
	"fmt"
	"math"
)

// Params are the global scoring knobs. They apply to a whole run, never
// per criterion.
type Params struct {
	// PenaltyFloor is the score multiplier left when the worst critical
	// membership is 0. Must be in [0,1).
	PenaltyFloor float64 `json:"penalty_floor" yaml:"penalty_floor"`
	// PenaltySharpness is the exponent on the worst critical membership.
	// Values above 1 make a single bad critical crush the score.
	PenaltySharpness float64 `json:"penalty_sharpness" yaml:"penalty_sharpness"`
	// ModifierShare is the fixed slice of the blended score given to the
	// always-on quality signals.
	ModifierShare float64 `json:"modifier_share" yaml:"modifier_share"`
	// ModifierScale scales the signed modifier sum before the sigmoid.
	ModifierScale float64 `json:"modifier_scale" yaml:"modifier_scale"`
	// RankDecay is the geometric decay ratio for within-group criterion
	// ranks: weight_i = RankDecay^(rank_i - 1).
	RankDecay float64 `json:"rank_decay" yaml:"rank_decay"`
	// CriticalBias is how much heavier one critical criterion weighs than
	// one preferred criterion when splitting the group weights.
	CriticalBias float64 `json:"critical_bias" yaml:"critical_bias"`
	// ApplyThreshold is the membership a fuzzy critical criterion must
	// reach to pass the hard elimination phase.
	ApplyThreshold float64 `json:"apply_threshold" yaml:"apply_threshold"`
}

// DefaultParams returns the deployment defaults. These are tuning
// constants, not invariants; operators override them in config.
func DefaultParams() Params {
	return Params{
		PenaltyFloor:     0.05,
		PenaltySharpness: 2.0,
		ModifierShare:    0.10,
		ModifierScale:    1.0,
		RankDecay:        0.8,
		CriticalBias:     2.0,
		ApplyThreshold:   0.5,
	}
}

// Validate checks the parameters are usable before a run starts.
func (p Params) Validate() error {
	if p.PenaltyFloor < 0 || p.PenaltyFloor >= 1 {
		return fmt.Errorf("penalty_floor %v outside [0,1)", p.PenaltyFloor)
	}
	if p.PenaltySharpness <= 0 {
		return fmt.Errorf("penalty_sharpness %v must be positive", p.PenaltySharpness)
	}
	if p.ModifierShare < 0 || p.ModifierShare >= 1 {
		return fmt.Errorf("modifier_share %v outside [0,1)", p.ModifierShare)
	}
	if p.RankDecay <= 0 || p.RankDecay > 1 {
		return fmt.Errorf("rank_decay %v outside (0,1]", p.RankDecay)
	}
	if p.CriticalBias < 1 {
		return fmt.Errorf("critical_bias %v must be >= 1", p.CriticalBias)
	}
	if p.ApplyThreshold < 0 || p.ApplyThreshold > 1 {
		return fmt.Errorf("apply_threshold %v outside [0,1]", p.ApplyThreshold)
	}
	return nil
}

// RankWeight is the within-group weight of a criterion at the given
// 1-based rank.
func (p Params) RankWeight(rank int) float64 {
	if rank < 1 {
		rank = 1
	}
	return math.Pow(p.RankDecay, float64(rank-1))
}

// GroupWeights splits the blended score between the critical, preferred
// and modifier groups for the given counts of active criteria. The split
// shifts with the counts, but criticals as a group always dominate
// preferreds when any are active.
func (p Params) GroupWeights(criticals, preferreds int) (lc, lp, lm float64) {
	if criticals == 0 && preferreds == 0 {
		// Nothing selected: modifiers are all the signal there is.
		return 0, 0, 1
	}
	lm = p.ModifierShare
	rest := 1 - lm
	switch {
	case criticals == 0:
		return 0, rest, lm
	case preferreds == 0:
		return rest, 0, lm
	}
	wc := p.CriticalBias * float64(criticals)
	ratio := wc / (wc + float64(preferreds))
	// Group dominance: many preferreds must never outweigh the criticals.
	if ratio < 0.5 {
		ratio = 0.5
	}
	lc = rest * ratio
	lp = rest - lc
	return lc, lp, lm
}
