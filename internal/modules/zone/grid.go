// README: Grid/pad coordinate math shared by distance and position lookups.
package zone

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// GridSize is the number of macro cells per side (rows Z..D, columns 0..4).
	GridSize = 5
	// PadsPerSide is the 3x3 keypad subdivision of each macro cell.
	PadsPerSide = 3
	// PadMeters is the world width of one pad.
	PadMeters = 1000.0
)

var ErrInvalidCell = errors.New("invalid grid cell")

// rowLetters is ordered south to north.
const rowLetters = "ZABCD"

// Cell is a macro grid cell plus keypad position. Pad 1-2-3 is the bottom
// row, 7-8-9 the top row.
type Cell struct {
	Row int
	Col int
	Pad int
}

func ParseCell(grid string, pad int) (Cell, error) {
	g := strings.ToUpper(strings.TrimSpace(grid))
	if len(g) != 2 {
		return Cell{}, fmt.Errorf("%w: grid %q", ErrInvalidCell, grid)
	}
	row := strings.IndexByte(rowLetters, g[0])
	if row < 0 {
		return Cell{}, fmt.Errorf("%w: grid row %q", ErrInvalidCell, g[0])
	}
	col := int(g[1] - '0')
	if col < 0 || col >= GridSize {
		return Cell{}, fmt.Errorf("%w: grid column %q", ErrInvalidCell, g[1])
	}
	if pad < 1 || pad > PadsPerSide*PadsPerSide {
		return Cell{}, fmt.Errorf("%w: pad %d", ErrInvalidCell, pad)
	}
	return Cell{Row: row, Col: col, Pad: pad}, nil
}

// ParseLabel accepts "B2-5", "b2 5", "B2:5" and bare "B2" (Pad 0).
func ParseLabel(label string) (Cell, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if len(s) < 2 {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, label)
	}
	grid, rest := s[:2], strings.TrimLeft(s[2:], "-: ")
	if rest == "" {
		c, err := ParseCell(grid, 5)
		if err != nil {
			return Cell{}, err
		}
		c.Pad = 0
		return c, nil
	}
	pad, err := strconv.Atoi(rest)
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, label)
	}
	return ParseCell(grid, pad)
}

func (c Cell) Grid() string {
	return fmt.Sprintf("%c%d", rowLetters[c.Row], c.Col)
}

func (c Cell) Label() string {
	if c.Pad == 0 {
		return c.Grid()
	}
	return fmt.Sprintf("%s-%d", c.Grid(), c.Pad)
}

// Units returns absolute pad-unit coordinates (macro*3 + pad offset).
func (c Cell) Units() (x, y int) {
	padRow := (c.Pad - 1) / PadsPerSide
	padCol := (c.Pad - 1) % PadsPerSide
	return c.Col*PadsPerSide + padCol, c.Row*PadsPerSide + padRow
}

// Center returns the world position of the pad center in meters.
func (c Cell) Center() (x, y float64) {
	ux, uy := c.Units()
	return (float64(ux) + 0.5) * PadMeters, (float64(uy) + 0.5) * PadMeters
}

// CellAt maps a world position to its cell; ok is false outside the map.
func CellAt(x, y float64) (Cell, bool) {
	limit := float64(GridSize*PadsPerSide) * PadMeters
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x >= limit || y >= limit {
		return Cell{}, false
	}
	ux := int(x / PadMeters)
	uy := int(y / PadMeters)
	return Cell{
		Row: uy / PadsPerSide,
		Col: ux / PadsPerSide,
		Pad: (uy%PadsPerSide)*PadsPerSide + ux%PadsPerSide + 1,
	}, true
}
