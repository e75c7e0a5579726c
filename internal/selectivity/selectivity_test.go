package selectivity

import (
	"math"
	"testing"

	"github.com/terrasift/terrasift/internal/criteria"
	"github.com/terrasift/terrasift/internal/site"
)

// buildPopulation creates 1000 habitable sites: 40% with rivers, biome split
// 50/30/20, temperature spread evenly over [-20, 30).
func buildPopulation() []site.Record {
	records := make([]site.Record, 1000)
	for i := range records {
		biome := "temperate_forest"
		switch {
		case i%10 < 3:
			biome = "desert"
		case i%10 < 5:
			biome = "tundra"
		}
		records[i] = site.Record{
			ID: site.ID(i),
			Attrs: site.Attributes{
				Biome:       biome,
				Temperature: -20 + float64(i%100)/2,
				Latitude:    float64(i % 90),
				HasRiver:    i%5 < 2,
				Hilliness:   site.Hilliness(i % 4),
				StoneTypes:  []string{"granite", "limestone"},
				Habitable:   true,
			},
		}
	}
	return records
}

func TestBooleanEstimateExact(t *testing.T) {
	s := BuildStats(buildPopulation())
	c := criteria.Criterion{ID: "has_river", Kind: criteria.KindBoolean,
		Importance: criteria.ImportanceCritical, Want: true}
	est := s.EstimateCriterion(&c)
	if !est.Exact {
		t.Error("boolean estimates are exact")
	}
	if math.Abs(est.Fraction-0.4) > 1e-9 {
		t.Errorf("expected 40%% with rivers, got %v", est.Fraction)
	}
	if est.MatchCount != 400 {
		t.Errorf("expected 400 matches, got %d", est.MatchCount)
	}
}

func TestRangeEstimate(t *testing.T) {
	s := BuildStats(buildPopulation())
	zero := 0.0
	c := criteria.Criterion{ID: "temperature", Kind: criteria.KindRange,
		Importance: criteria.ImportanceCritical, Low: 0, High: 30,
		MarginLow: &zero, MarginHigh: &zero}
	est := s.EstimateCriterion(&c)
	// Temperatures are uniform over [-20, 30); [0, 30) is 60% of the span.
	if math.Abs(est.Fraction-0.6) > 0.05 {
		t.Errorf("expected ~60%%, got %v", est.Fraction)
	}
}

func TestExpensiveAttributeEstimates(t *testing.T) {
	// Warm, wet population: every site has a forage yield well inside (0,1)
	// and a full growing year.
	records := make([]site.Record, 200)
	for i := range records {
		records[i] = site.Record{
			ID: site.ID(i),
			Attrs: site.Attributes{
				Biome:       "temperate_forest",
				Temperature: 24,
				Rainfall:    1600,
				Latitude:    10,
				Habitable:   true,
			},
		}
	}
	s := BuildStats(records)

	zero := 0.0
	cfg := &criteria.Config{Criteria: []criteria.Criterion{
		{ID: "forage_yield", Kind: criteria.KindRange, Importance: criteria.ImportanceCritical,
			Low: 0, High: 1, MarginLow: &zero, MarginHigh: &zero},
		{ID: "growing_days", Kind: criteria.KindRange, Importance: criteria.ImportanceCritical,
			Low: 30, High: 60, MarginLow: &zero, MarginHigh: &zero},
	}}

	for i := range cfg.Criteria {
		est := s.EstimateCriterion(&cfg.Criteria[i])
		if math.Abs(est.Fraction-1.0) > 1e-9 {
			t.Errorf("%s covers the whole population, got fraction %v", cfg.Criteria[i].ID, est.Fraction)
		}
		if est.MatchCount != 200 {
			t.Errorf("%s: expected 200 matches, got %d", cfg.Criteria[i].ID, est.MatchCount)
		}
	}

	// A configuration everyone passes must not draw a finding.
	if findings := NewDetector(s).Check(cfg); len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestImpossibleAndDetected(t *testing.T) {
	s := BuildStats(buildPopulation())
	cfg := &criteria.Config{Criteria: []criteria.Criterion{
		{ID: "biome", Kind: criteria.KindSet, Operator: criteria.OperatorAnd, Members: []criteria.SetMember{
			{Value: "desert", Importance: criteria.ImportanceCritical},
			{Value: "tundra", Importance: criteria.ImportanceCritical},
		}},
	}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	est := s.EstimateCriterion(&cfg.Criteria[0])
	if est.Fraction != 0 || !est.Exact {
		t.Errorf("impossible AND must estimate exactly 0, got %v exact=%v", est.Fraction, est.Exact)
	}

	findings := NewDetector(s).Check(cfg)
	foundError := false
	for _, f := range findings {
		if f.Severity == SeverityError && f.CriterionID == "biome" {
			foundError = true
		}
	}
	if !foundError {
		t.Errorf("detector must flag the impossible AND, findings: %+v", findings)
	}
}

func TestOrOperatorNotImpossible(t *testing.T) {
	c := criteria.Criterion{ID: "biome", Kind: criteria.KindSet, Operator: criteria.OperatorOr,
		Members: []criteria.SetMember{
			{Value: "desert", Importance: criteria.ImportanceCritical},
			{Value: "tundra", Importance: criteria.ImportanceCritical},
		}}
	if ImpossibleAnd(&c) {
		t.Error("OR over a single-valued attribute is fine")
	}
	s := BuildStats(buildPopulation())
	est := s.EstimateCriterion(&c)
	// Independence estimate: 1 - (1-0.3)(1-0.2) = 0.44.
	if math.Abs(est.Fraction-0.44) > 1e-9 {
		t.Errorf("desert+tundra OR should estimate 0.44, got %v", est.Fraction)
	}
}

func TestMultiValuedAndNotImpossible(t *testing.T) {
	c := criteria.Criterion{ID: "stone_types", Kind: criteria.KindSet, Operator: criteria.OperatorAnd,
		Members: []criteria.SetMember{
			{Value: "granite", Importance: criteria.ImportanceCritical},
			{Value: "limestone", Importance: criteria.ImportanceCritical},
		}}
	if ImpossibleAnd(&c) {
		t.Error("stone_types is multi-valued, AND can match")
	}
}

func TestRestrictiveCombinationWarning(t *testing.T) {
	s := BuildStats(buildPopulation())
	zero := 0.0
	cfg := &criteria.Config{Criteria: []criteria.Criterion{
		{ID: "temperature", Kind: criteria.KindRange, Importance: criteria.ImportanceCritical,
			Low: 29, High: 30, MarginLow: &zero, MarginHigh: &zero},
		{ID: "has_river", Kind: criteria.KindBoolean, Importance: criteria.ImportanceCritical, Want: true},
	}}
	findings := NewDetector(s).Check(cfg)
	warned := false
	for _, f := range findings {
		if f.CriterionID == "general" && f.Severity != SeverityInfo {
			warned = true
		}
	}
	if !warned {
		t.Errorf("narrow combination should warn, findings: %+v", findings)
	}
}

func TestEstimateConfigIncludesGeneral(t *testing.T) {
	s := BuildStats(buildPopulation())
	cfg := &criteria.Config{Criteria: []criteria.Criterion{
		{ID: "has_river", Kind: criteria.KindBoolean, Importance: criteria.ImportanceCritical, Want: true},
		{ID: "rainfall", Kind: criteria.KindRange, Importance: criteria.ImportancePreferred, Low: 0, High: 5000},
		{ID: "has_road", Kind: criteria.KindBoolean, Importance: criteria.ImportanceIgnored},
	}}
	ests := s.EstimateConfig(cfg)
	if len(ests) != 3 {
		t.Fatalf("expected river + rainfall + general, got %d estimates", len(ests))
	}
	last := ests[len(ests)-1]
	if last.CriterionID != "general" {
		t.Errorf("combined estimate must be labelled general, got %q", last.CriterionID)
	}
	if math.Abs(last.Fraction-0.4) > 1e-9 {
		t.Errorf("combined critical selectivity should be 0.4, got %v", last.Fraction)
	}
}
