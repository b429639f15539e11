package zone

import "testing"

func TestParseCell_Units(t *testing.T) {
	tests := []struct {
		grid  string
		pad   int
		wantX int
		wantY int
	}{
		{"Z0", 1, 0, 0},
		{"Z0", 9, 2, 2},
		{"B2", 5, 7, 7},
		{"B2", 1, 6, 6},
		{"b3", 4, 9, 7},
		{"D4", 9, 14, 14},
	}
	for _, tt := range tests {
		c, err := ParseCell(tt.grid, tt.pad)
		if err != nil {
			t.Fatalf("ParseCell(%s, %d): %v", tt.grid, tt.pad, err)
		}
		x, y := c.Units()
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%s-%d units = (%d,%d), want (%d,%d)", tt.grid, tt.pad, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestParseCell_Invalid(t *testing.T) {
	cases := []struct {
		grid string
		pad  int
	}{
		{"", 5}, {"E1", 5}, {"B5", 5}, {"B", 5}, {"B22", 5}, {"B2", 0}, {"B2", 10},
	}
	for _, c := range cases {
		if _, err := ParseCell(c.grid, c.pad); err == nil {
			t.Errorf("expected error for %q pad %d", c.grid, c.pad)
		}
	}
}

func TestParseLabel(t *testing.T) {
	for _, in := range []string{"B2-5", "b2-5", "B2 5", "B2:5"} {
		c, err := ParseLabel(in)
		if err != nil {
			t.Fatalf("ParseLabel(%q): %v", in, err)
		}
		if c.Label() != "B2-5" {
			t.Errorf("ParseLabel(%q) = %s", in, c.Label())
		}
	}
	c, err := ParseLabel("c3")
	if err != nil {
		t.Fatalf("bare grid: %v", err)
	}
	if c.Pad != 0 || c.Label() != "C3" {
		t.Errorf("unexpected bare grid parse: %+v", c)
	}
	if _, err := ParseLabel("B2-x"); err == nil {
		t.Error("expected error for non-numeric pad")
	}
}

func TestCellAt_RoundTrip(t *testing.T) {
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			for pad := 1; pad <= 9; pad++ {
				want := Cell{Row: row, Col: col, Pad: pad}
				x, y := want.Center()
				got, ok := CellAt(x, y)
				if !ok || got != want {
					t.Fatalf("CellAt(center of %s) = %+v, %v", want.Label(), got, ok)
				}
			}
		}
	}
	if _, ok := CellAt(-1, 10); ok {
		t.Error("expected negative coordinates to be outside the map")
	}
	if _, ok := CellAt(15000, 10); ok {
		t.Error("expected x at map edge to be outside the map")
	}
}
