// README: Immutable lookup over validated vehicle types.
package vehicle

import "fmt"

type Catalog struct {
	types []Type
	byID  map[string]int
}

func NewCatalog(types []Type) (*Catalog, error) {
	if len(types) == 0 {
		types = Builtin()
	}
	c := &Catalog{byID: make(map[string]int, len(types))}
	for _, t := range types {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidType, t.ID)
		}
		c.byID[t.ID] = len(c.types)
		c.types = append(c.types, t)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Type, error) {
	i, ok := c.byID[id]
	if !ok {
		return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return c.types[i], nil
}

// CostMultiplier falls back to 1.0 for unknown types.
func (c *Catalog) CostMultiplier(id string) float64 {
	if t, err := c.Get(id); err == nil {
		return t.CostMultiplier
	}
	return 1.0
}

func (c *Catalog) All() []Type {
	out := make([]Type, len(c.types))
	copy(out, c.types)
	return out
}

// Known reports whether every id is in the catalog.
func (c *Catalog) Known(ids []string) error {
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownType, id)
		}
	}
	return nil
}
