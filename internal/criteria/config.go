package criteria

import (
	"fmt"
	"sort"
)

// Config is an immutable snapshot of the filters a run evaluates. Any
// change means building a new snapshot; the engine never mutates one
// mid-run, which keeps evaluations reproducible.
type Config struct {
	Criteria []Criterion `json:"criteria" yaml:"criteria"`
}

// ConfigError is a configuration-level rejection; it aborts a run before
// any site is touched.
type ConfigError struct {
	CriterionID string
	Reason      string
}

func (e *ConfigError) Error() string {
	if e.CriterionID == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid criterion %q: %s", e.CriterionID, e.Reason)
}

// knownAttributes is the attribute catalog: which key exists and which
// criterion kind reads it.
var knownAttributes = map[string]Kind{
	"temperature":  KindRange,
	"rainfall":     KindRange,
	"elevation":    KindRange,
	"latitude":     KindRange,
	"growing_days": KindRange,
	"forage_yield": KindRange,
	"hilliness":    KindOrdinal,
	"has_river":    KindBoolean,
	"has_coast":    KindBoolean,
	"has_road":     KindBoolean,
	"has_cave":     KindBoolean,
	"biome":        KindSet,
	"stone_types":  KindSet,
}

// KnownAttribute reports whether key exists in the attribute catalog.
func KnownAttribute(key string) bool {
	_, ok := knownAttributes[key]
	return ok
}

// Validate rejects malformed configurations before a run: unknown
// attributes, kind mismatches, inverted ranges, bad margins, duplicate ids.
func (cfg *Config) Validate() error {
	seen := make(map[string]bool, len(cfg.Criteria))
	for i := range cfg.Criteria {
		c := &cfg.Criteria[i]
		if c.ID == "" {
			return &ConfigError{Reason: "criterion id required"}
		}
		if seen[c.ID] {
			return &ConfigError{CriterionID: c.ID, Reason: "duplicate criterion id"}
		}
		seen[c.ID] = true

		wantKind, ok := knownAttributes[c.AttributeKey()]
		if !ok {
			return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("unknown attribute %q", c.AttributeKey())}
		}
		if c.Kind == "" {
			c.Kind = wantKind
		}
		if c.Kind != wantKind {
			return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("kind %q does not match attribute %q", c.Kind, c.AttributeKey())}
		}

		switch c.Importance {
		case "", ImportanceIgnored, ImportancePreferred, ImportanceCritical:
		default:
			return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("unknown importance %q", c.Importance)}
		}
		switch c.Operator {
		case "", OperatorAnd, OperatorOr:
		default:
			return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("unknown operator %q", c.Operator)}
		}

		switch c.Kind {
		case KindRange:
			if c.Low > c.High {
				return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("low %v > high %v", c.Low, c.High)}
			}
			if c.MarginLow != nil && *c.MarginLow < 0 {
				return &ConfigError{CriterionID: c.ID, Reason: "negative margin"}
			}
			if c.MarginHigh != nil && *c.MarginHigh < 0 {
				return &ConfigError{CriterionID: c.ID, Reason: "negative margin"}
			}
		case KindOrdinal:
			if c.MaxDistance < 0 {
				return &ConfigError{CriterionID: c.ID, Reason: "negative max_distance"}
			}
			for _, name := range c.Allowed {
				if _, ok := ParseOrdinal(c.AttributeKey(), name); !ok {
					return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("unknown level %q", name)}
				}
			}
		case KindSet:
			for _, m := range c.Members {
				switch m.Importance {
				case ImportanceIgnored, ImportancePreferred, ImportanceCritical:
				default:
					return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("member %q: unknown importance %q", m.Value, m.Importance)}
				}
				if m.Weight < 0 {
					return &ConfigError{CriterionID: c.ID, Reason: fmt.Sprintf("member %q: negative weight", m.Value)}
				}
			}
		}
	}
	return nil
}

// Active returns the criteria that participate in a run, in config order.
func (cfg *Config) Active() []Criterion {
	var out []Criterion
	for _, c := range cfg.Criteria {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// CriticalOrdered returns the apply-phase criteria sorted ascending by cost
// class so expensive filters only see the sites cheaper ones let through.
// Ties are broken by id for a deterministic pipeline.
func (cfg *Config) CriticalOrdered() []Criterion {
	var out []Criterion
	for _, c := range cfg.Criteria {
		if c.HasCritical() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cost() != out[j].Cost() {
			return out[i].Cost() < out[j].Cost()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SelectedAttributes lists the attribute keys the user has explicitly made
// critical or preferred; modifiers on those attributes are excluded from
// the modifier score to avoid double counting.
func (cfg *Config) SelectedAttributes() map[string]bool {
	sel := make(map[string]bool)
	for _, c := range cfg.Criteria {
		if c.Active() {
			sel[c.AttributeKey()] = true
		}
	}
	return sel
}
