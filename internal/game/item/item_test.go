package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGlyph_RoundTrip(t *testing.T) {
	for _, k := range All {
		got, ok := FromGlyph(k.Glyph())
		assert.True(t, ok, "glyph %q", k.Glyph())
		assert.Equal(t, k, got)
	}
}

func TestFromGlyph_Unknown(t *testing.T) {
	for _, g := range []byte{'.', '#', 'E', 'X', 'P', 'g'} {
		k, ok := FromGlyph(g)
		assert.False(t, ok)
		assert.Equal(t, None, k)
	}
}

func TestRetainable(t *testing.T) {
	assert.True(t, Sword.Retainable())
	assert.True(t, Armour.Retainable())
	assert.True(t, Lantern.Retainable())
	assert.False(t, Gold.Retainable())
	assert.False(t, Health.Retainable())
	assert.False(t, None.Retainable())
}

func TestEffects(t *testing.T) {
	assert.Equal(t, Effect{Gold: 1}, Gold.Effect())
	assert.Equal(t, Effect{HP: 1}, Health.Effect())
	for _, k := range []Kind{Sword, Armour, Lantern} {
		assert.Equal(t, Effect{}, k.Effect(), "retainable %s must not have an instant effect", k)
	}
}

func TestLookBonus(t *testing.T) {
	for _, k := range All {
		if k == Lantern {
			assert.Equal(t, 1, k.LookBonus())
			continue
		}
		assert.Zero(t, k.LookBonus(), k.String())
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "health potion", Health.String())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "item(42)", Kind(42).String())
	assert.False(t, Kind(42).Valid())
}
