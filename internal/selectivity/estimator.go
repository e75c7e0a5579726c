package selectivity

import (
	"github.com/terrasift/terrasift/internal/criteria"
	"github.com/terrasift/terrasift/internal/site"
)

// Estimate is the heuristic match prediction for one criterion or for the
// whole critical combination ("general"). Exact is true only where the
// estimate is a certainty, e.g. a provably impossible AND.
type Estimate struct {
	CriterionID string  `json:"criterion_id"`
	Importance  string  `json:"importance"`
	Fraction    float64 `json:"fraction"`
	MatchCount  int     `json:"match_count"`
	Total       int     `json:"total"`
	Exact       bool    `json:"exact"`
}

// EstimateCriterion predicts the apply-phase selectivity of one criterion
// from the population statistics, without scanning sites.
func (s *Stats) EstimateCriterion(c *criteria.Criterion) Estimate {
	est := Estimate{
		CriterionID: c.ID,
		Importance:  string(c.Importance),
		Total:       s.Total,
	}
	if c.Kind == criteria.KindSet {
		if c.HasCritical() {
			est.Importance = string(criteria.ImportanceCritical)
		} else {
			est.Importance = string(criteria.ImportancePreferred)
		}
	}

	switch c.Kind {
	case criteria.KindRange:
		// Approximate the apply threshold by extending the range halfway
		// into the soft margins.
		ml, mh := c.Margins()
		if f, ok := s.numericFraction(c.AttributeKey(), c.Low-ml/2, c.High+mh/2); ok {
			est.Fraction = f
		}

	case criteria.KindOrdinal:
		for _, name := range c.Allowed {
			if level, ok := criteria.ParseOrdinal(c.AttributeKey(), name); ok {
				est.Fraction += s.ordinalFraction(level)
			}
		}

	case criteria.KindBoolean:
		if f, ok := s.flagFraction(c.AttributeKey(), c.Want); ok {
			est.Fraction = f
			est.Exact = true
		}

	case criteria.KindSet:
		est.Fraction, est.Exact = s.estimateSet(c)
	}

	if est.Fraction > 1 {
		est.Fraction = 1
	}
	est.MatchCount = int(est.Fraction * float64(s.Total))
	return est
}

// estimateSet predicts the fraction of sites passing a set criterion's
// critical condition. A single-valued attribute with two distinct critical
// AND members is exactly zero: a site holds one value of that kind.
func (s *Stats) estimateSet(c *criteria.Criterion) (float64, bool) {
	var fracs []float64
	for _, m := range c.Members {
		if m.Importance == criteria.ImportanceCritical {
			fracs = append(fracs, s.valueFraction(c.AttributeKey(), m.Value))
		}
	}
	if len(fracs) == 0 {
		return 1, false
	}
	if c.Operator == criteria.OperatorOr {
		// Independence assumption: P(any) = 1 - Π(1 - p_i).
		miss := 1.0
		for _, f := range fracs {
			miss *= 1 - f
		}
		return 1 - miss, false
	}
	if len(fracs) > 1 && ImpossibleAnd(c) {
		return 0, true
	}
	prod := 1.0
	for _, f := range fracs {
		prod *= f
	}
	return prod, false
}

// ImpossibleAnd reports whether the criterion requires two distinct
// critical values of a single-valued attribute joined by AND, which can
// never match.
func ImpossibleAnd(c *criteria.Criterion) bool {
	if c.Kind != criteria.KindSet || c.Operator == criteria.OperatorOr {
		return false
	}
	if !site.SingleValued(c.AttributeKey()) {
		return false
	}
	distinct := make(map[string]bool)
	for _, m := range c.Members {
		if m.Importance == criteria.ImportanceCritical {
			distinct[m.Value] = true
		}
	}
	return len(distinct) > 1
}

// EstimateConfig returns per-criterion estimates for every active criterion
// plus the combined critical estimate under the independence assumption,
// reported with criterion id "general".
func (s *Stats) EstimateConfig(cfg *criteria.Config) []Estimate {
	var out []Estimate
	combined := 1.0
	haveCritical := false
	for i := range cfg.Criteria {
		c := &cfg.Criteria[i]
		if !c.Active() {
			continue
		}
		est := s.EstimateCriterion(c)
		out = append(out, est)
		if c.HasCritical() {
			combined *= est.Fraction
			haveCritical = true
		}
	}
	if haveCritical {
		out = append(out, Estimate{
			CriterionID: "general",
			Importance:  string(criteria.ImportanceCritical),
			Fraction:    combined,
			MatchCount:  int(combined * float64(s.Total)),
			Total:       s.Total,
		})
	}
	return out
}
