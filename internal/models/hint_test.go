package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHintTierWeight(t *testing.T) {
	assert.Equal(t, 5, HintSurface.Weight())
	assert.Equal(t, 15, HintMedium.Weight())
	assert.Equal(t, 30, HintDeep.Weight())
	assert.Equal(t, 0, HintTier("bogus").Weight())
	assert.False(t, HintTier("bogus").Valid())
}

func TestPenaltyIsOrderIndependent(t *testing.T) {
	orders := [][]HintTier{
		{HintSurface, HintMedium, HintDeep},
		{HintDeep, HintSurface, HintMedium},
		{HintMedium, HintDeep, HintSurface},
	}
	for _, o := range orders {
		assert.Equal(t, 50, Penalty(o), "order %v", o)
	}
	assert.Equal(t, 20, Penalty([]HintTier{HintSurface, HintMedium}))
	assert.Equal(t, 0, Penalty(nil))
}
