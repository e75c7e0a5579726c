// Package selectivity estimates how much of the site population a
// configuration will match, without running the pipeline. The estimates
// feed live feedback while configuring and the conflict detector that
// flags degenerate configurations before a full run.
package selectivity

import (
	"sort"

	"github.com/terrasift/terrasift/internal/site"
)

// Stats are static reference statistics over the eligible population,
// built once at load time and shared by all estimates.
type Stats struct {
	Total int

	numeric  map[string][]float64          // sorted samples per numeric attribute
	flags    map[string]float64            // fraction true per boolean attribute
	values   map[string]map[string]float64 // fraction holding each categorical value
	ordinals map[int]float64               // fraction per hilliness level
}

// BuildStats scans the eligible records once. Expensive attributes are
// derived here as well, so estimates cover them without touching the
// provider cache.
func BuildStats(records []site.Record) *Stats {
	s := &Stats{
		numeric:  make(map[string][]float64),
		flags:    make(map[string]float64),
		values:   make(map[string]map[string]float64),
		ordinals: make(map[int]float64),
	}
	flagCounts := make(map[string]int)
	valueCounts := map[string]map[string]int{
		"biome":       {},
		"stone_types": {},
	}
	ordinalCounts := make(map[int]int)

	for i := range records {
		a := &records[i].Attrs
		if !a.Habitable {
			continue
		}
		s.Total++

		s.numeric["temperature"] = append(s.numeric["temperature"], a.Temperature)
		s.numeric["rainfall"] = append(s.numeric["rainfall"], a.Rainfall)
		s.numeric["elevation"] = append(s.numeric["elevation"], a.Elevation)
		s.numeric["latitude"] = append(s.numeric["latitude"], a.Latitude)
		s.numeric["growing_days"] = append(s.numeric["growing_days"], site.GrowingDays(a.Temperature, a.Latitude))
		s.numeric["forage_yield"] = append(s.numeric["forage_yield"], site.ForageYield(a))

		for _, key := range []string{"has_river", "has_coast", "has_road", "has_cave"} {
			if on, _ := a.Flag(key); on {
				flagCounts[key]++
			}
		}
		valueCounts["biome"][a.Biome]++
		for _, st := range a.StoneTypes {
			valueCounts["stone_types"][st]++
		}
		ordinalCounts[int(a.Hilliness)]++
	}

	for key := range s.numeric {
		sort.Float64s(s.numeric[key])
	}
	if s.Total > 0 {
		n := float64(s.Total)
		for key, c := range flagCounts {
			s.flags[key] = float64(c) / n
		}
		for attr, counts := range valueCounts {
			s.values[attr] = make(map[string]float64, len(counts))
			for v, c := range counts {
				s.values[attr][v] = float64(c) / n
			}
		}
		for level, c := range ordinalCounts {
			s.ordinals[level] = float64(c) / n
		}
	}
	return s
}

// Summary is the operator-facing view of the reference statistics.
type Summary struct {
	Total     int                `json:"total"`
	Flags     map[string]float64 `json:"flags"`
	Biomes    map[string]float64 `json:"biomes"`
	Stones    map[string]float64 `json:"stone_types"`
	Hilliness map[string]float64 `json:"hilliness"`
}

// Summary exports the categorical distributions. Numeric samples stay
// internal; they are estimation machinery, not reporting data.
func (s *Stats) Summary() Summary {
	out := Summary{
		Total:     s.Total,
		Flags:     make(map[string]float64, len(s.flags)),
		Biomes:    make(map[string]float64, len(s.values["biome"])),
		Stones:    make(map[string]float64, len(s.values["stone_types"])),
		Hilliness: make(map[string]float64, len(s.ordinals)),
	}
	for k, v := range s.flags {
		out.Flags[k] = v
	}
	for k, v := range s.values["biome"] {
		out.Biomes[k] = v
	}
	for k, v := range s.values["stone_types"] {
		out.Stones[k] = v
	}
	for level, v := range s.ordinals {
		out.Hilliness[site.Hilliness(level).String()] = v
	}
	return out
}

// numericFraction is the share of samples inside [low, high], via binary
// search over the sorted sample set.
func (s *Stats) numericFraction(key string, low, high float64) (float64, bool) {
	samples, ok := s.numeric[key]
	if !ok || len(samples) == 0 {
		return 0, false
	}
	lo := sort.SearchFloat64s(samples, low)
	hi := sort.Search(len(samples), func(i int) bool { return samples[i] > high })
	return float64(hi-lo) / float64(len(samples)), true
}

func (s *Stats) flagFraction(key string, want bool) (float64, bool) {
	f, ok := s.flags[key]
	if !ok {
		return 0, false
	}
	if !want {
		f = 1 - f
	}
	return f, true
}

func (s *Stats) valueFraction(attr, value string) float64 {
	return s.values[attr][value]
}

func (s *Stats) ordinalFraction(level int) float64 {
	return s.ordinals[level]
}
