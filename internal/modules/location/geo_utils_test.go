package location

import (
	"math"
	"testing"

	"zonetaxi/internal/modules/zone"
)

func mustZone(t *testing.T, id, grid string, pad int) zone.Zone {
	t.Helper()
	z := zone.Zone{ID: id, Grid: grid, Pad: pad}
	if _, err := z.Cell(); err != nil {
		t.Fatalf("bad fixture %s: %v", id, err)
	}
	return z
}

func TestDistance_KnownRoutes(t *testing.T) {
	tests := []struct {
		name   string
		a, b   zone.Zone
		wantKm float64
	}{
		{
			name:   "same pad",
			a:      mustZone(t, "a", "B2", 5),
			b:      mustZone(t, "b", "B2", 5),
			wantKm: 0,
		},
		{
			name:   "B2-5 to C2-5 (3 units)",
			a:      mustZone(t, "city", "B2", 5),
			b:      mustZone(t, "port", "C2", 5),
			wantKm: 4.2,
		},
		{
			name:   "adjacent pads",
			a:      mustZone(t, "a", "B2", 5),
			b:      mustZone(t, "b", "B2", 6),
			wantKm: 1.4,
		},
		{
			name:   "opposite corners",
			a:      mustZone(t, "a", "Z0", 1),
			b:      mustZone(t, "b", "D4", 9),
			wantKm: 39.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.wantKm)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	grids := []string{"Z0", "A3", "B2", "C4", "D1"}
	for _, g1 := range grids {
		for _, g2 := range grids {
			for pad := 1; pad <= 9; pad += 4 {
				a := mustZone(t, "a", g1, pad)
				b := mustZone(t, "b", g2, 10-pad)
				if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
					t.Fatalf("not symmetric for %s/%s: %v vs %v", a.Label(), b.Label(), d1, d2)
				}
			}
		}
	}
}

func TestDistance_FallbackOnMissingCell(t *testing.T) {
	good := mustZone(t, "good", "B2", 5)
	tests := []zone.Zone{
		{ID: "no_grid", Pad: 5},
		{ID: "no_pad", Grid: "B2"},
		{ID: "bad_grid", Grid: "Q9", Pad: 5},
	}
	for _, bad := range tests {
		if got := Distance(good, bad); got != FallbackKm {
			t.Errorf("Distance(good, %s) = %v, want %v", bad.ID, got, FallbackKm)
		}
		if got := Distance(bad, good); got != FallbackKm {
			t.Errorf("Distance(%s, good) = %v, want %v", bad.ID, got, FallbackKm)
		}
	}
}
