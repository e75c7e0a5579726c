package selectivity

import (
	"fmt"

	"github.com/terrasift/terrasift/internal/criteria"
)

// Severity grades a conflict finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one typed conflict report with a human-readable suggestion.
// The detector only reports; it never rewrites the configuration.
type Finding struct {
	Severity    Severity `json:"severity"`
	CriterionID string   `json:"criterion_id"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Detector flags configurations that are provably degenerate or so
// restrictive a run is unlikely to produce results. Thresholds are tuning
// constants, overridable per deployment.
type Detector struct {
	stats *Stats

	// WarnBelow and ErrorBelow are estimated match counts for the combined
	// critical configuration.
	WarnBelow  int
	ErrorBelow int
	// RareFraction marks a single criterion as very rare; combining two or
	// more rare criticals draws a warning of its own.
	RareFraction float64
}

// NewDetector builds a detector with the default thresholds.
func NewDetector(stats *Stats) *Detector {
	return &Detector{
		stats:        stats,
		WarnBelow:    100,
		ErrorBelow:   1,
		RareFraction: 0.001,
	}
}

// Check inspects a validated configuration and returns typed findings.
// Ordering is not significant; callers group by severity as needed.
func (d *Detector) Check(cfg *criteria.Config) []Finding {
	var findings []Finding
	combined := 1.0
	haveCritical := false
	rare := 0

	for i := range cfg.Criteria {
		c := &cfg.Criteria[i]
		if !c.Active() {
			continue
		}
		if ImpossibleAnd(c) {
			findings = append(findings, Finding{
				Severity:    SeverityError,
				CriterionID: c.ID,
				Message:     fmt.Sprintf("%s holds exactly one value per site; requiring multiple critical values with AND can never match", c.AttributeKey()),
				Suggestion:  "switch the operator to OR or demote members to preferred",
			})
		}
		if !c.HasCritical() {
			continue
		}
		est := d.stats.EstimateCriterion(c)
		combined *= est.Fraction
		haveCritical = true
		if est.Fraction < d.RareFraction {
			rare++
			findings = append(findings, Finding{
				Severity:    SeverityInfo,
				CriterionID: c.ID,
				Message:     fmt.Sprintf("matches ~%.2f%% of sites", est.Fraction*100),
			})
		}
	}

	if rare >= 2 {
		findings = append(findings, Finding{
			Severity:    SeverityWarning,
			CriterionID: "general",
			Message:     fmt.Sprintf("%d critical criteria each match under %.1f%% of sites; combined they will almost certainly eliminate everything", rare, d.RareFraction*100),
			Suggestion:  "relax one of the rare criteria or demote it to preferred",
		})
	}

	if haveCritical {
		count := int(combined * float64(d.stats.Total))
		switch {
		case count < d.ErrorBelow:
			findings = append(findings, Finding{
				Severity:    SeverityError,
				CriterionID: "general",
				Message:     fmt.Sprintf("combined critical filters are estimated to match %d sites", count),
				Suggestion:  "widen ranges or drop a critical criterion before running",
			})
		case count < d.WarnBelow:
			findings = append(findings, Finding{
				Severity:    SeverityWarning,
				CriterionID: "general",
				Message:     fmt.Sprintf("combined critical filters are estimated to match only ~%d sites", count),
				Suggestion:  "consider widening ranges or adding fallback tiers",
			})
		}
	}
	return findings
}
