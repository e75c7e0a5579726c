package site

import (
	"context"
	"math"
)

// Seasonal temperature model: a site's temperature over the 60-day year is
// its annual mean plus a cosine seasonal offset whose amplitude grows with
// distance from the equator. Growing days count the twelfths (5-day periods)
// whose average temperature falls inside the optimal growth band.
const (
	daysPerYear      = 60
	twelfthsPerYear  = 12
	daysPerTwelfth   = 5
	minGrowthTemp    = 6.0
	maxGrowthTemp    = 42.0
	winterPhase      = 10.0 / 12.0
	samplesPerPeriod = 120
)

// seasonalAmplitude interpolates the °C swing from the annual mean for a
// normalized distance from the equator: ±3° at the equator, ±4° at 10%,
// ±28° at the poles.
func seasonalAmplitude(distFromEquator float64) float64 {
	d := distFromEquator
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 0.1:
		return 3.0 + (d/0.1)*1.0
	case d >= 1.0:
		return 28.0
	default:
		return 4.0 + ((d-0.1)/0.9)*24.0
	}
}

// seasonOffset is the temperature offset at a position in the year [0,1).
// The southern hemisphere negates the amplitude, shifting the cycle by half
// a year.
func seasonOffset(yearPct, amplitude float64, southern bool) float64 {
	if southern {
		amplitude = -amplitude
	}
	angle := 2 * math.Pi * (yearPct - winterPhase)
	return math.Cos(angle) * -amplitude
}

// GrowingDays computes how many days per year the site's average temperature
// stays within [minGrowthTemp, maxGrowthTemp]. Each twelfth is averaged over
// evenly spaced samples and counts as 5 days when in range.
func GrowingDays(meanTemp, latitude float64) float64 {
	amplitude := seasonalAmplitude(math.Abs(latitude) / 90.0)
	southern := latitude < 0

	inRange := 0
	for twelfth := 0; twelfth < twelfthsPerYear; twelfth++ {
		var sum float64
		for s := 0; s < samplesPerPeriod; s++ {
			dayPct := (float64(twelfth) + float64(s)/samplesPerPeriod) / twelfthsPerYear
			sum += meanTemp + seasonOffset(dayPct, amplitude, southern)
		}
		avg := sum / samplesPerPeriod
		if avg >= minGrowthTemp && avg <= maxGrowthTemp {
			inRange++
		}
	}
	return float64(inRange * daysPerTwelfth)
}

// ForageYield is a coarse fertility proxy: full yield needs warmth and
// rainfall, and falls off toward deserts and ice sheets.
func ForageYield(a *Attributes) float64 {
	temp := (a.Temperature - minGrowthTemp) / (maxGrowthTemp - minGrowthTemp)
	rain := a.Rainfall / 2000.0
	y := math.Min(math.Max(temp, 0), 1) * math.Min(math.Max(rain, 0), 1)
	return math.Min(y, 1)
}

// ComputeExtended is the default derivation wired into the provider cache.
func ComputeExtended(_ context.Context, _ ID, attrs *Attributes) (*ExtendedAttributes, error) {
	return &ExtendedAttributes{
		GrowingDays: GrowingDays(attrs.Temperature, attrs.Latitude),
		ForageYield: ForageYield(attrs),
	}, nil
}
