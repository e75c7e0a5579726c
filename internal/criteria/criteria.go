// Package criteria models the filter dimensions a user can configure. Each
// criterion is a data-only value of a closed kind (range, ordinal, boolean,
// set); the match behaviour lives in a single function per kind rather than
// behind dynamic dispatch, so criteria stay serializable and testable in
// isolation.
package criteria

import (
	"context"
	"fmt"

	"github.com/terrasift/terrasift/internal/fuzzy"
	"github.com/terrasift/terrasift/internal/site"
)

// Importance decides how a criterion participates in a run: critical
// criteria eliminate sites in the apply phase, preferred criteria only
// shift the score, ignored criteria do nothing.
type Importance string

const (
	ImportanceIgnored   Importance = "ignored"
	ImportancePreferred Importance = "preferred"
	ImportanceCritical  Importance = "critical"
)

// Operator joins the selected members of a multi-valued criterion.
type Operator string

const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
)

// Kind is the closed set of criterion shapes.
type Kind string

const (
	KindRange   Kind = "range"
	KindOrdinal Kind = "ordinal"
	KindBoolean Kind = "boolean"
	KindSet     Kind = "set"
)

// CostClass orders apply-phase execution so expensive criteria only run on
// sites that survived all cheaper ones.
type CostClass int

const (
	CostCheap CostClass = iota
	CostModerate
	CostExpensive
)

// SetMember is one selectable value of a set criterion, carrying its own
// importance (e.g. granite critical, marble preferred).
type SetMember struct {
	Value      string     `json:"value" yaml:"value"`
	Importance Importance `json:"importance" yaml:"importance"`
	Weight     float64    `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Criterion is one configured filter dimension. Only the fields matching
// its Kind are meaningful; Validate rejects inconsistent configurations
// before a run.
type Criterion struct {
	ID         string     `json:"id" yaml:"id"`
	Kind       Kind       `json:"kind" yaml:"kind"`
	Attribute  string     `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Importance Importance `json:"importance" yaml:"importance"`
	Operator   Operator   `json:"operator,omitempty" yaml:"operator,omitempty"`
	Rank       int        `json:"rank,omitempty" yaml:"rank,omitempty"`

	// Range
	Low        float64  `json:"low,omitempty" yaml:"low,omitempty"`
	High       float64  `json:"high,omitempty" yaml:"high,omitempty"`
	MarginLow  *float64 `json:"margin_low,omitempty" yaml:"margin_low,omitempty"`
	MarginHigh *float64 `json:"margin_high,omitempty" yaml:"margin_high,omitempty"`

	// Ordinal
	Allowed     []string `json:"allowed,omitempty" yaml:"allowed,omitempty"`
	MaxDistance int      `json:"max_distance,omitempty" yaml:"max_distance,omitempty"`

	// Boolean
	Want bool `json:"want,omitempty" yaml:"want,omitempty"`

	// Set
	Members []SetMember `json:"members,omitempty" yaml:"members,omitempty"`
}

// AttributeKey is the site attribute the criterion reads; it defaults to
// the criterion id.
func (c *Criterion) AttributeKey() string {
	if c.Attribute != "" {
		return c.Attribute
	}
	return c.ID
}

// Cost classifies the criterion for apply-phase ordering: boolean flags are
// the cheapest, attributes served by the memoizing extended cache the most
// expensive.
func (c *Criterion) Cost() CostClass {
	if site.ExpensiveAttribute(c.AttributeKey()) {
		return CostExpensive
	}
	if c.Kind == KindBoolean {
		return CostCheap
	}
	return CostModerate
}

// HasCritical reports whether the criterion participates in the apply
// phase: either its own importance is critical, or (for sets) any member is.
func (c *Criterion) HasCritical() bool {
	if c.Kind == KindSet {
		for _, m := range c.Members {
			if m.Importance == ImportanceCritical {
				return true
			}
		}
		return false
	}
	return c.Importance == ImportanceCritical
}

// HasPreferred reports whether the criterion contributes a preferred
// membership to scoring.
func (c *Criterion) HasPreferred() bool {
	if c.Kind == KindSet {
		for _, m := range c.Members {
			if m.Importance == ImportancePreferred {
				return true
			}
		}
		return false
	}
	return c.Importance == ImportancePreferred
}

// Active reports whether the criterion does anything at all in a run.
func (c *Criterion) Active() bool {
	return c.HasCritical() || c.HasPreferred()
}

// Margins resolves the soft margins of a range criterion, deriving defaults
// from the range width when unset.
func (c *Criterion) Margins() (float64, float64) {
	dl, dh := fuzzy.DefaultMargins(c.Low, c.High)
	if c.MarginLow != nil {
		dl = *c.MarginLow
	}
	if c.MarginHigh != nil {
		dh = *c.MarginHigh
	}
	return dl, dh
}

// numericValue resolves the criterion's attribute for a site, consulting
// the extended cache for expensive keys. The error surfaces only for
// expensive lookups; callers degrade that site's membership to 0.
func (c *Criterion) numericValue(ctx context.Context, p site.Provider, id site.ID) (float64, error) {
	key := c.AttributeKey()
	if site.ExpensiveAttribute(key) {
		ext, err := p.Extended(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("extended attribute %q for site %d: %w", key, id, err)
		}
		v, ok := ext.Numeric(key)
		if !ok {
			return 0, fmt.Errorf("unknown extended attribute %q", key)
		}
		return v, nil
	}
	attrs, ok := p.Cheap(id)
	if !ok {
		return 0, fmt.Errorf("unknown site %d", id)
	}
	v, ok := attrs.Numeric(key)
	if !ok {
		return 0, fmt.Errorf("unknown attribute %q", key)
	}
	return v, nil
}

// Membership computes the fuzzy match strength in [0,1] for one site. For
// set criteria this is the critical satisfaction when critical members are
// selected, otherwise the preferred fraction; the engine uses the dedicated
// accessors to keep the two apart during aggregation.
func (c *Criterion) Membership(ctx context.Context, p site.Provider, id site.ID) (float64, error) {
	switch c.Kind {
	case KindRange:
		v, err := c.numericValue(ctx, p, id)
		if err != nil {
			return 0, err
		}
		dl, dh := c.Margins()
		return fuzzy.Trapezoid(v, c.Low, c.High, dl, dh), nil

	case KindOrdinal:
		attrs, ok := p.Cheap(id)
		if !ok {
			return 0, fmt.Errorf("unknown site %d", id)
		}
		level := int(attrs.Hilliness)
		nearest := -1
		for _, name := range c.Allowed {
			step, ok := ParseOrdinal(c.AttributeKey(), name)
			if !ok {
				continue
			}
			d := level - step
			if d < 0 {
				d = -d
			}
			if nearest < 0 || d < nearest {
				nearest = d
			}
		}
		if nearest < 0 {
			return 0, nil
		}
		return fuzzy.Ramp(float64(nearest), float64(c.MaxDistance)), nil

	case KindBoolean:
		attrs, ok := p.Cheap(id)
		if !ok {
			return 0, fmt.Errorf("unknown site %d", id)
		}
		got, ok := attrs.Flag(c.AttributeKey())
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", c.AttributeKey())
		}
		return fuzzy.Boolean(got, c.Want), nil

	case KindSet:
		values, err := c.siteValues(p, id)
		if err != nil {
			return 0, err
		}
		if c.HasCritical() {
			return fuzzy.Boolean(c.CriticalSatisfied(values), true), nil
		}
		frac, _ := c.PreferredFraction(values)
		return frac, nil
	}
	return 0, fmt.Errorf("unknown criterion kind %q", c.Kind)
}

func (c *Criterion) siteValues(p site.Provider, id site.ID) ([]string, error) {
	attrs, ok := p.Cheap(id)
	if !ok {
		return nil, fmt.Errorf("unknown site %d", id)
	}
	values, ok := attrs.Values(c.AttributeKey())
	if !ok {
		return nil, fmt.Errorf("unknown set attribute %q", c.AttributeKey())
	}
	return values, nil
}

// CriticalSatisfied evaluates the set criterion's hard condition over the
// site's values: AND requires every critical member present, OR at least
// one. With no critical members it is vacuously true.
func (c *Criterion) CriticalSatisfied(values []string) bool {
	any, all, n := false, true, 0
	for _, m := range c.Members {
		if m.Importance != ImportanceCritical {
			continue
		}
		n++
		present := contains(values, m.Value)
		any = any || present
		all = all && present
	}
	if n == 0 {
		return true
	}
	if c.Operator == OperatorOr {
		return any
	}
	return all
}

// PreferredFraction is the weighted share of preferred members the site
// holds. The second return is false when the criterion has no preferred
// members.
func (c *Criterion) PreferredFraction(values []string) (float64, bool) {
	var got, total float64
	for _, m := range c.Members {
		if m.Importance != ImportancePreferred {
			continue
		}
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		total += w
		if contains(values, m.Value) {
			got += w
		}
	}
	if total == 0 {
		return 0, false
	}
	return fuzzy.Clamp01(got / total), true
}

// Apply is the hard pass/fail used during the apply phase for criteria with
// critical importance. Fuzzy kinds pass when membership reaches the
// threshold; booleans and sets are exact.
func (c *Criterion) Apply(ctx context.Context, p site.Provider, id site.ID, threshold float64) (bool, error) {
	if c.Kind == KindSet {
		values, err := c.siteValues(p, id)
		if err != nil {
			return false, err
		}
		return c.CriticalSatisfied(values), nil
	}
	m, err := c.Membership(ctx, p, id)
	if err != nil {
		return false, err
	}
	return m >= threshold, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
