// README: Grid distance model; Manhattan pad units scaled by a road factor.
package location

import (
	"math"

	"zonetaxi/internal/modules/zone"
)

const (
	// RoadFactor converts straight pad units into road kilometres.
	RoadFactor = 1.4
	// FallbackKm is used when either endpoint has no usable grid cell.
	FallbackKm = 10.0
)

// Distance returns road kilometres between two zones, rounded to 0.01 km.
// It is symmetric and Distance(z, z) == 0.
func Distance(a, b zone.Zone) float64 {
	ca, err := a.Cell()
	if err != nil {
		return FallbackKm
	}
	cb, err := b.Cell()
	if err != nil {
		return FallbackKm
	}
	return CellDistance(ca, cb)
}

func CellDistance(a, b zone.Cell) float64 {
	return roundKm(float64(manhattanUnits(a, b)) * RoadFactor)
}

func manhattanUnits(a, b zone.Cell) int {
	ax, ay := a.Units()
	bx, by := b.Units()
	return absInt(ax-bx) + absInt(ay-by)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func roundKm(v float64) float64 {
	return math.Round(v*100) / 100
}
