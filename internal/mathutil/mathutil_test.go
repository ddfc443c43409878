package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntClamp(t *testing.T) {
	assert.Equal(t, 10, IntClamp(42, 0, 10))
	assert.Equal(t, 0, IntClamp(-1, 0, 10))
	assert.Equal(t, 4, IntClamp(4, 0, 10))
	assert.Equal(t, 7, IntClamp(3, 7, 5), "empty range collapses to lo")
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		x      float64
		levels int
		want   int
	}{
		{0, 82, 0},
		{1, 82, 81},
		{0.5, 82, 41},
		{-3, 82, 0},
		{7, 82, 81},
		{0.5, 1, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Quantize(tc.x, tc.levels), "Quantize(%v, %d)", tc.x, tc.levels)
	}
}

func TestClampAndLerp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.25, Clamp01(0.25))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.True(t, NearlyZero(1e-12, 1e-9))
	assert.False(t, NearlyZero(-0.1, 1e-9))
}
