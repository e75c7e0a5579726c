package criteria

import "github.com/terrasift/terrasift/internal/site"

// ParseOrdinal maps a level name of an ordinal attribute to its step index.
func ParseOrdinal(attribute, name string) (int, bool) {
	if attribute == "hilliness" {
		h, ok := site.ParseHilliness(name)
		return int(h), ok
	}
	return 0, false
}

// Modifier is an always-on quality signal, independent of the user's
// explicit selection. The rating is signed: positive signals reward a site,
// negative ones penalize it. A modifier applies when its boolean attribute
// is set on the site.
type Modifier struct {
	ID        string  `json:"id" yaml:"id"`
	Attribute string  `json:"attribute" yaml:"attribute"`
	Rating    float64 `json:"rating" yaml:"rating"`
}

// DefaultModifiers are the intrinsic quality signals applied to every run
// unless the surrounding application overrides them.
func DefaultModifiers() []Modifier {
	return []Modifier{
		{ID: "river_access", Attribute: "has_river", Rating: 1.0},
		{ID: "road_access", Attribute: "has_road", Rating: 0.75},
		{ID: "coastal", Attribute: "has_coast", Rating: 0.5},
		{ID: "natural_cave", Attribute: "has_cave", Rating: 0.25},
	}
}

// ModifierSum adds up the ratings of the modifiers that apply to the site,
// skipping any whose attribute the user already selected as critical or
// preferred. The second return counts the modifiers considered.
func ModifierSum(mods []Modifier, attrs *site.Attributes, selected map[string]bool) (float64, int) {
	var sum float64
	considered := 0
	for _, m := range mods {
		if selected[m.Attribute] {
			continue
		}
		considered++
		if on, ok := attrs.Flag(m.Attribute); ok && on {
			sum += m.Rating
		}
	}
	return sum, considered
}
