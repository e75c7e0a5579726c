package site

// ID identifies one candidate site in the dataset.
type ID int64

// Hilliness is an ordered terrain roughness scale. Ordinal distance between
// two levels is the number of steps between them.
type Hilliness int

const (
	HillinessFlat Hilliness = iota
	HillinessSmallHills
	HillinessLargeHills
	HillinessMountainous
	HillinessImpassable
)

func (h Hilliness) String() string {
	switch h {
	case HillinessFlat:
		return "flat"
	case HillinessSmallHills:
		return "small_hills"
	case HillinessLargeHills:
		return "large_hills"
	case HillinessMountainous:
		return "mountainous"
	case HillinessImpassable:
		return "impassable"
	default:
		return "unknown"
	}
}

// ParseHilliness maps a config string to a Hilliness level.
func ParseHilliness(s string) (Hilliness, bool) {
	switch s {
	case "flat":
		return HillinessFlat, true
	case "small_hills":
		return HillinessSmallHills, true
	case "large_hills":
		return HillinessLargeHills, true
	case "mountainous":
		return HillinessMountainous, true
	case "impassable":
		return HillinessImpassable, true
	}
	return 0, false
}

// Attributes are the cheap per-site values, always resident in memory.
type Attributes struct {
	Biome       string    `json:"biome"`
	Hilliness   Hilliness `json:"hilliness"`
	Temperature float64   `json:"temperature"` // annual mean, °C
	Rainfall    float64   `json:"rainfall"`    // mm/year
	Elevation   float64   `json:"elevation"`   // meters
	Latitude    float64   `json:"latitude"`    // degrees, negative = south
	HasRiver    bool      `json:"has_river"`
	HasCoast    bool      `json:"has_coast"`
	HasRoad     bool      `json:"has_road"`
	HasCave     bool      `json:"has_cave"`
	StoneTypes  []string  `json:"stone_types"` // 2-3 per site
	Habitable   bool      `json:"habitable"`
}

// ExtendedAttributes are derived values that are costly to compute. They are
// produced lazily through the Provider and memoized per site.
type ExtendedAttributes struct {
	GrowingDays float64 `json:"growing_days"` // days per year in growth range
	ForageYield float64 `json:"forage_yield"` // 0–1 relative yield
}

// Record pairs a site id with its cheap attributes, as loaded from the store.
type Record struct {
	ID    ID
	Attrs Attributes
}

// Numeric resolves a cheap numeric attribute by key. The second return is
// false for unknown keys.
func (a *Attributes) Numeric(key string) (float64, bool) {
	switch key {
	case "temperature":
		return a.Temperature, true
	case "rainfall":
		return a.Rainfall, true
	case "elevation":
		return a.Elevation, true
	case "latitude":
		return a.Latitude, true
	}
	return 0, false
}

// Flag resolves a cheap boolean attribute by key.
func (a *Attributes) Flag(key string) (bool, bool) {
	switch key {
	case "has_river":
		return a.HasRiver, true
	case "has_coast":
		return a.HasCoast, true
	case "has_road":
		return a.HasRoad, true
	case "has_cave":
		return a.HasCave, true
	}
	return false, false
}

// Values resolves a categorical attribute to the set of values the site
// holds. Biome is single-valued; stone types are multi-valued.
func (a *Attributes) Values(key string) ([]string, bool) {
	switch key {
	case "biome":
		return []string{a.Biome}, true
	case "stone_types":
		return a.StoneTypes, true
	}
	return nil, false
}

// SingleValued reports whether a categorical attribute holds exactly one
// value per site. Requiring two distinct critical values of such an
// attribute with AND can never match.
func SingleValued(key string) bool {
	return key == "biome"
}

// Numeric resolves an expensive numeric attribute by key.
func (e *ExtendedAttributes) Numeric(key string) (float64, bool) {
	switch key {
	case "growing_days":
		return e.GrowingDays, true
	case "forage_yield":
		return e.ForageYield, true
	}
	return 0, false
}

// ExpensiveAttribute reports whether the key is served by ExtendedAttributes
// rather than the cheap Attributes.
func ExpensiveAttribute(key string) bool {
	switch key {
	case "growing_days", "forage_yield":
		return true
	}
	return false
}
