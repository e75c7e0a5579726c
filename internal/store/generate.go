package store

import (
	"math/rand"

	"github.com/terrasift/terrasift/internal/site"
)

var biomes = []string{
	"tropical_rainforest", "temperate_forest", "boreal_forest",
	"arid_shrubland", "desert", "tundra", "ice_sheet",
}

var stoneCatalog = []string{"granite", "limestone", "marble", "sandstone", "slate"}

// GenerateSites builds a synthetic but plausibly distributed population for
// development and benchmarks: temperature falls off with latitude, rainfall
// with aridity, and roughly 10% of sites are uninhabitable.
func GenerateSites(n int, seed int64) []site.Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]site.Record, n)
	for i := range records {
		lat := rng.Float64()*180 - 90
		absLat := lat
		if absLat < 0 {
			absLat = -absLat
		}
		temp := 30 - absLat*0.6 + rng.NormFloat64()*5

		var biome string
		switch {
		case temp < -15:
			biome = "ice_sheet"
		case temp < -5:
			biome = "tundra"
		case temp < 5:
			biome = "boreal_forest"
		case temp < 18:
			biome = "temperate_forest"
		case rng.Float64() < 0.4:
			biome = "desert"
		case rng.Float64() < 0.5:
			biome = "arid_shrubland"
		default:
			biome = "tropical_rainforest"
		}

		rainfall := rng.Float64() * 2600
		if biome == "desert" || biome == "ice_sheet" {
			rainfall *= 0.15
		}

		stones := make([]string, 0, 3)
		for _, idx := range rng.Perm(len(stoneCatalog))[:2+rng.Intn(2)] {
			stones = append(stones, stoneCatalog[idx])
		}

		records[i] = site.Record{
			ID: site.ID(i + 1),
			Attrs: site.Attributes{
				Biome:       biome,
				Hilliness:   site.Hilliness(rng.Intn(4)),
				Temperature: temp,
				Rainfall:    rainfall,
				Elevation:   rng.Float64()*3000 - 200,
				Latitude:    lat,
				HasRiver:    rng.Float64() < 0.18,
				HasCoast:    rng.Float64() < 0.22,
				HasRoad:     rng.Float64() < 0.12,
				HasCave:     rng.Float64() < 0.08,
				StoneTypes:  stones,
				Habitable:   biome != "ice_sheet" && rng.Float64() > 0.03,
			},
		}
	}
	return records
}
