package engine

import "github.com/terrasift/terrasift/internal/criteria"

// DefaultFallbacks expands a primary configuration into the standard
// relaxation chain:
//
//	tier 0 "primary":        the configuration as given
//	tier 1 "widened":        numeric margins doubled, ordinal tolerance +1
//	tier 2 "preferred_only": every critical demoted to preferred, so
//	                         nothing is eliminated and the best of the
//	                         whole population is ranked
//
// Each tier is an independent snapshot; relaxation never mutates the
// caller's configuration.
func DefaultFallbacks(primary criteria.Config) []Tier {
	return []Tier{
		{Label: "primary", Config: primary},
		{Label: "widened", Config: widen(primary)},
		{Label: "preferred_only", Config: demote(primary)},
	}
}

func widen(cfg criteria.Config) criteria.Config {
	out := cloneConfig(cfg)
	for i := range out.Criteria {
		c := &out.Criteria[i]
		switch c.Kind {
		case criteria.KindRange:
			ml, mh := c.Margins()
			ml, mh = ml*2, mh*2
			c.MarginLow, c.MarginHigh = &ml, &mh
		case criteria.KindOrdinal:
			c.MaxDistance++
		}
	}
	return out
}

func demote(cfg criteria.Config) criteria.Config {
	out := cloneConfig(cfg)
	for i := range out.Criteria {
		c := &out.Criteria[i]
		if c.Importance == criteria.ImportanceCritical {
			c.Importance = criteria.ImportancePreferred
		}
		for j := range c.Members {
			if c.Members[j].Importance == criteria.ImportanceCritical {
				c.Members[j].Importance = criteria.ImportancePreferred
			}
		}
	}
	return out
}

func cloneConfig(cfg criteria.Config) criteria.Config {
	out := criteria.Config{Criteria: make([]criteria.Criterion, len(cfg.Criteria))}
	copy(out.Criteria, cfg.Criteria)
	for i := range out.Criteria {
		c := &out.Criteria[i]
		if c.MarginLow != nil {
			v := *c.MarginLow
			c.MarginLow = &v
		}
		if c.MarginHigh != nil {
			v := *c.MarginHigh
			c.MarginHigh = &v
		}
		c.Allowed = append([]string(nil), c.Allowed...)
		c.Members = append([]criteria.SetMember(nil), c.Members...)
	}
	return out
}
