package criteria

import (
	"context"
	"math"
	"testing"

	"github.com/terrasift/terrasift/internal/site"
)

func floatPtr(v float64) *float64 { return &v }

func testProvider() site.Provider {
	records := []site.Record{
		{ID: 1, Attrs: site.Attributes{
			Biome: "temperate_forest", Hilliness: site.HillinessSmallHills,
			Temperature: 20, Rainfall: 1200, Latitude: 40,
			HasRiver: true, StoneTypes: []string{"granite", "marble"}, Habitable: true,
		}},
		{ID: 2, Attrs: site.Attributes{
			Biome: "desert", Hilliness: site.HillinessMountainous,
			Temperature: 38, Rainfall: 200, Latitude: 15,
			StoneTypes: []string{"sandstone", "slate"}, Habitable: true,
		}},
	}
	return site.NewCachedProvider(records, site.ComputeExtended)
}

func TestRangeMembership(t *testing.T) {
	p := testProvider()
	c := Criterion{ID: "temperature", Kind: KindRange, Importance: ImportanceCritical,
		Low: 10, High: 32, MarginLow: floatPtr(5), MarginHigh: floatPtr(5)}

	m, err := c.Membership(context.Background(), p, 1)
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if m != 1.0 {
		t.Errorf("20°C inside [10,32] should score 1.0, got %v", m)
	}

	m, _ = c.Membership(context.Background(), p, 2)
	if math.Abs(m-0.0) > 1e-9 {
		t.Errorf("38°C beyond margin should score 0, got %v", m)
	}

	ok, err := c.Apply(context.Background(), p, 1, 0.5)
	if err != nil || !ok {
		t.Errorf("site 1 should pass apply, got ok=%v err=%v", ok, err)
	}
	ok, _ = c.Apply(context.Background(), p, 2, 0.5)
	if ok {
		t.Error("site 2 should fail apply")
	}
}

func TestOrdinalMembership(t *testing.T) {
	p := testProvider()
	c := Criterion{ID: "hilliness", Kind: KindOrdinal, Importance: ImportancePreferred,
		Allowed: []string{"flat", "small_hills"}, MaxDistance: 2}

	m, _ := c.Membership(context.Background(), p, 1)
	if m != 1.0 {
		t.Errorf("small hills allowed, expected 1.0, got %v", m)
	}

	// Mountainous is 2 steps from small_hills.
	m, _ = c.Membership(context.Background(), p, 2)
	if math.Abs(m-0.0) > 1e-9 {
		t.Errorf("2 steps with max distance 2 should score 0, got %v", m)
	}

	c.MaxDistance = 4
	m, _ = c.Membership(context.Background(), p, 2)
	if math.Abs(m-0.5) > 1e-9 {
		t.Errorf("2 of 4 tolerated steps should score 0.5, got %v", m)
	}
}

func TestBooleanMembership(t *testing.T) {
	p := testProvider()
	c := Criterion{ID: "has_river", Kind: KindBoolean, Importance: ImportanceCritical, Want: true}

	m, _ := c.Membership(context.Background(), p, 1)
	if m != 1.0 {
		t.Errorf("expected 1.0, got %v", m)
	}
	m, _ = c.Membership(context.Background(), p, 2)
	if m != 0.0 {
		t.Errorf("expected 0.0, got %v", m)
	}
}

func TestSetCriticalOperators(t *testing.T) {
	c := Criterion{ID: "stone_types", Kind: KindSet, Operator: OperatorAnd, Members: []SetMember{
		{Value: "granite", Importance: ImportanceCritical},
		{Value: "marble", Importance: ImportanceCritical},
		{Value: "limestone", Importance: ImportancePreferred},
	}}

	if !c.CriticalSatisfied([]string{"granite", "marble"}) {
		t.Error("AND with both present should pass")
	}
	if c.CriticalSatisfied([]string{"granite", "slate"}) {
		t.Error("AND with one missing should fail")
	}

	c.Operator = OperatorOr
	if !c.CriticalSatisfied([]string{"granite", "slate"}) {
		t.Error("OR with one present should pass")
	}
	if c.CriticalSatisfied([]string{"sandstone", "slate"}) {
		t.Error("OR with none present should fail")
	}
}

func TestSetPreferredFraction(t *testing.T) {
	c := Criterion{ID: "stone_types", Kind: KindSet, Members: []SetMember{
		{Value: "granite", Importance: ImportancePreferred, Weight: 3},
		{Value: "marble", Importance: ImportancePreferred, Weight: 1},
		{Value: "slate", Importance: ImportanceCritical},
	}}

	frac, ok := c.PreferredFraction([]string{"granite"})
	if !ok {
		t.Fatal("criterion has preferred members")
	}
	if math.Abs(frac-0.75) > 1e-9 {
		t.Errorf("weighted fraction should be 0.75, got %v", frac)
	}

	none := Criterion{ID: "stone_types", Kind: KindSet, Members: []SetMember{
		{Value: "slate", Importance: ImportanceCritical},
	}}
	if _, ok := none.PreferredFraction([]string{"slate"}); ok {
		t.Error("no preferred members should report ok=false")
	}
}

func TestExpensiveAttributeMembership(t *testing.T) {
	p := testProvider()
	c := Criterion{ID: "growing_days", Kind: KindRange, Importance: ImportanceCritical,
		Low: 30, High: 60, MarginLow: floatPtr(10), MarginHigh: floatPtr(0)}
	if c.Cost() != CostExpensive {
		t.Error("growing_days should classify as expensive")
	}
	m, err := c.Membership(context.Background(), p, 2)
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if m < 0 || m > 1 {
		t.Errorf("membership out of range: %v", m)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Criteria: []Criterion{
			{ID: "temperature", Kind: KindRange, Importance: ImportanceCritical, Low: 10, High: 32},
		}}, false},
		{"unknown attribute", Config{Criteria: []Criterion{
			{ID: "mana_level", Importance: ImportanceCritical},
		}}, true},
		{"inverted range", Config{Criteria: []Criterion{
			{ID: "temperature", Kind: KindRange, Importance: ImportanceCritical, Low: 32, High: 10},
		}}, true},
		{"kind mismatch", Config{Criteria: []Criterion{
			{ID: "temperature", Kind: KindBoolean, Importance: ImportanceCritical},
		}}, true},
		{"duplicate id", Config{Criteria: []Criterion{
			{ID: "has_river", Kind: KindBoolean, Importance: ImportanceCritical, Want: true},
			{ID: "has_river", Kind: KindBoolean, Importance: ImportancePreferred, Want: true},
		}}, true},
		{"negative margin", Config{Criteria: []Criterion{
			{ID: "rainfall", Kind: KindRange, Importance: ImportanceCritical, Low: 0, High: 100, MarginLow: floatPtr(-1)},
		}}, true},
		{"unknown ordinal level", Config{Criteria: []Criterion{
			{ID: "hilliness", Kind: KindOrdinal, Importance: ImportanceCritical, Allowed: []string{"rolling"}},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCriticalOrderedByCost(t *testing.T) {
	cfg := Config{Criteria: []Criterion{
		{ID: "growing_days", Kind: KindRange, Importance: ImportanceCritical, Low: 30, High: 60},
		{ID: "temperature", Kind: KindRange, Importance: ImportanceCritical, Low: 10, High: 32},
		{ID: "has_river", Kind: KindBoolean, Importance: ImportanceCritical, Want: true},
		{ID: "rainfall", Kind: KindRange, Importance: ImportancePreferred, Low: 500, High: 2000},
	}}
	ordered := cfg.CriticalOrdered()
	if len(ordered) != 3 {
		t.Fatalf("expected 3 critical criteria, got %d", len(ordered))
	}
	if ordered[0].ID != "has_river" || ordered[2].ID != "growing_days" {
		t.Errorf("wrong cost order: %s, %s, %s", ordered[0].ID, ordered[1].ID, ordered[2].ID)
	}
}

func TestModifierSumExcludesSelected(t *testing.T) {
	attrs := &site.Attributes{HasRiver: true, HasRoad: true}
	mods := DefaultModifiers()

	sum, n := ModifierSum(mods, attrs, nil)
	if math.Abs(sum-1.75) > 1e-9 {
		t.Errorf("expected sum 1.75, got %v", sum)
	}
	if n != len(mods) {
		t.Errorf("expected %d considered, got %d", len(mods), n)
	}

	// User selected has_river explicitly: its modifier must not double count.
	sum, n = ModifierSum(mods, attrs, map[string]bool{"has_river": true})
	if math.Abs(sum-0.75) > 1e-9 {
		t.Errorf("expected sum 0.75 with river excluded, got %v", sum)
	}
	if n != len(mods)-1 {
		t.Errorf("expected %d considered, got %d", len(mods)-1, n)
	}
}
