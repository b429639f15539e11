// README: Zone registry; id, free-text and position lookups over an immutable snapshot.
package zone

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

const (
	DefaultStopToleranceM = 500.0
	DefaultZoneToleranceM = 1000.0
)

type Options struct {
	StopToleranceM float64
	ZoneToleranceM float64
	Policies       PolicyTable
}

type snapshot struct {
	entries  []Zone
	byID     map[string]int
	policies PolicyTable
}

// Registry is safe for concurrent use. Reload swaps the whole snapshot.
type Registry struct {
	snap    atomic.Pointer[snapshot]
	stopTol float64
	zoneTol float64
}

func NewRegistry(entries []Zone, opts Options) (*Registry, error) {
	r := &Registry{stopTol: opts.StopToleranceM, zoneTol: opts.ZoneToleranceM}
	if r.stopTol <= 0 {
		r.stopTol = DefaultStopToleranceM
	}
	if r.zoneTol <= 0 {
		r.zoneTol = DefaultZoneToleranceM
	}
	if err := r.Reload(entries, opts.Policies); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload validates entries and replaces the snapshot. On error the previous
// snapshot stays in place.
func (r *Registry) Reload(entries []Zone, policies PolicyTable) error {
	table := DefaultPolicies().Merge(policies)
	s := &snapshot{
		entries:  make([]Zone, 0, len(entries)),
		byID:     make(map[string]int, len(entries)),
		policies: table,
	}
	for _, z := range entries {
		if err := z.Validate(table); err != nil {
			return err
		}
	}
	// zones first, then stops; catalog order within each kind
	for _, kind := range []Kind{KindZone, KindStop} {
		for _, z := range entries {
			if z.Kind != kind {
				continue
			}
			if _, dup := s.byID[z.ID]; dup {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidZone, z.ID)
			}
			s.byID[z.ID] = len(s.entries)
			s.entries = append(s.entries, z)
		}
	}
	r.snap.Store(s)
	return nil
}

func (r *Registry) Get(id string) (Zone, error) {
	s := r.snap.Load()
	i, ok := s.byID[id]
	if !ok {
		return Zone{}, ErrNotFound
	}
	// entries that no longer validate are reported as missing
	if err := s.entries[i].Validate(s.policies); err != nil {
		return Zone{}, ErrNotFound
	}
	return s.entries[i], nil
}

// Find resolves free text: exact id/name/alias, then substring, then a
// "B2-5" coordinate label. First hit wins.
func (r *Registry) Find(query string) (Zone, error) {
	q := normalize(query)
	if q == "" {
		return Zone{}, ErrNotFound
	}
	s := r.snap.Load()
	for _, z := range s.entries {
		for _, key := range keys(z) {
			if key == q {
				return z, nil
			}
		}
	}
	for _, z := range s.entries {
		for _, key := range keys(z) {
			if strings.Contains(key, q) || strings.Contains(q, key) {
				return z, nil
			}
		}
	}
	if c, err := ParseLabel(query); err == nil {
		for _, z := range s.entries {
			zc, err := z.Cell()
			if err != nil || zc.Row != c.Row || zc.Col != c.Col {
				continue
			}
			if c.Pad == 0 || zc.Pad == c.Pad {
				return z, nil
			}
		}
	}
	return Zone{}, ErrNotFound
}

// Nearest returns the closest stop within the stop tolerance, else the
// closest zone within the zone tolerance, else a synthetic open-country zone.
func (r *Registry) Nearest(x, y float64) Zone {
	s := r.snap.Load()
	if z, ok := closest(s.entries, KindStop, x, y, r.stopTol); ok {
		return z
	}
	if z, ok := closest(s.entries, KindZone, x, y, r.zoneTol); ok {
		return z
	}
	return openCountry(x, y)
}

// Policy returns the restriction policy. Unknown classes deny both directions.
func (r *Registry) Policy(rst Restriction) Policy {
	p, ok := r.snap.Load().policies[rst]
	if !ok {
		return Policy{Message: "Unknown zone restriction"}
	}
	return p
}

func (r *Registry) All() []Zone {
	s := r.snap.Load()
	out := make([]Zone, len(s.entries))
	copy(out, s.entries)
	return out
}

func (r *Registry) Len() int {
	return len(r.snap.Load().entries)
}

func closest(entries []Zone, kind Kind, x, y, tolerance float64) (Zone, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, z := range entries {
		if z.Kind != kind {
			continue
		}
		c, err := z.Cell()
		if err != nil {
			continue
		}
		cx, cy := c.Center()
		d := math.Hypot(cx-x, cy-y)
		if d <= tolerance && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Zone{}, false
	}
	return entries[best], true
}

func openCountry(x, y float64) Zone {
	z := Zone{
		ID:          "normal",
		Kind:        KindZone,
		Name:        "Open Country",
		Category:    CategoryNormal,
		Restriction: RestrictionNeutral,
		Access:      AccessSet{AccessLand, AccessRoad},
		Description: "Unclassified terrain",
		Synthetic:   true,
	}
	if c, ok := CellAt(x, y); ok {
		z.Grid, z.Pad = c.Grid(), c.Pad
	}
	return z
}

func keys(z Zone) []string {
	out := make([]string, 0, 2+len(z.Aliases))
	out = append(out, normalize(z.ID), normalize(z.Name))
	for _, a := range z.Aliases {
		if n := normalize(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
