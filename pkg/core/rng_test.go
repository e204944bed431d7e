package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
		assert.Equal(t, a.Float32(), b.Float32())
	}
}

func TestRNGEdges(t *testing.T) {
	r := NewRNG(1)
	assert.Zero(t, r.IntN(0))
	assert.False(t, r.Chance(0))
	assert.True(t, r.Chance(1))
	for i := 0; i < 32; i++ {
		v := r.Float32()
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}
