package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_DefaultsToBuiltin(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.Len(t, c.All(), 5)

	plane, err := c.Get("avion")
	require.NoError(t, err)
	assert.Equal(t, ClassAir, plane.Class)
	assert.Equal(t, 3.5, plane.CostMultiplier)
}

func TestCatalog_CostMultiplierFallback(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.8, c.CostMultiplier("moto"))
	assert.Equal(t, 1.0, c.CostMultiplier("hovercraft"))
}

func TestCatalog_Known(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.NoError(t, c.Known([]string{"auto", "barco"}))
	assert.ErrorIs(t, c.Known([]string{"auto", "rocket"}), ErrUnknownType)
}

func TestNewCatalog_RejectsInvalid(t *testing.T) {
	base := Builtin()[0]

	noClass := base
	noClass.Class = ""
	_, err := NewCatalog([]Type{noClass})
	assert.ErrorIs(t, err, ErrInvalidType)

	zeroCap := base
	zeroCap.Capacity = 0
	_, err = NewCatalog([]Type{zeroCap})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = NewCatalog([]Type{base, base})
	assert.ErrorIs(t, err, ErrInvalidType)
}
