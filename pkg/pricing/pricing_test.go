package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name       string
		base       float64
		multiplier float64
		factor     float64
		want       float64
	}{
		{"identity", 10, 1, 1, 10},
		{"condition discount", 100, 0.75, 1, 75},
		{"category premium", 100, 1, 1.2, 120},
		{"rounds to two decimals", 33.333, 0.9, 1, 30},
		{"rounds half up", 0.125, 1, 1, 0.13},
		{"combined", 19.99, 0.5, 0.8, 8},
		{"small fraction", 1.23, 0.3, 0.6, 0.22},
		{"half cent below binary midpoint", 2.01, 0.5, 1.0, 1.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Calculate(tt.base, tt.multiplier, tt.factor), 1e-9)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 7.0, Round2(7))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 1_000_000.0, Round2(999_999.995))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0.01))
	assert.NoError(t, Validate(MaxBasePrice))
	assert.ErrorIs(t, Validate(0), ErrInvalidBasePrice)
	assert.ErrorIs(t, Validate(-5), ErrInvalidBasePrice)
	assert.ErrorIs(t, Validate(MaxBasePrice+1), ErrInvalidBasePrice)
	assert.ErrorIs(t, Validate(math.NaN()), ErrInvalidBasePrice)
}
