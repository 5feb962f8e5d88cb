package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{299, 1},
		{300, 2},
		{599, 2},
		{600, 3},
		{3000, 11},
		{-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestApplyXP(t *testing.T) {
	change, err := ApplyXP(290, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 310, change.NewXP)
	assert.Equal(t, 2, change.NewLevel)
	assert.True(t, change.LeveledUp)

	change, err = ApplyXP(310, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 310, change.NewXP)
	assert.False(t, change.LeveledUp)

	_, err = ApplyXP(10, 1, -1)
	assert.Error(t, err)
}

func TestApplyXP_LevelInvariant(t *testing.T) {
	xp, level := 0, 1
	for _, amount := range []int{5, 30, 50, 100, 20, 70, 300, 299, 1, 0, 900} {
		change, err := ApplyXP(xp, level, amount)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, change.NewXP, xp)
		assert.Equal(t, change.NewXP/XPPerLevel+1, change.NewLevel)
		xp, level = change.NewXP, change.NewLevel
	}
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(450)
	assert.Equal(t, 300, p.CurrentLevelXP)
	assert.Equal(t, 600, p.NextLevelXP)
	assert.Equal(t, 150, p.ProgressXP)
	assert.InDelta(t, 50.0, p.ProgressPercent, 0.001)

	p = ProgressFor(100)
	assert.Equal(t, 0, p.CurrentLevelXP)
	assert.Equal(t, 300, p.NextLevelXP)
	assert.InDelta(t, 33.33, p.ProgressPercent, 0.001)
}
