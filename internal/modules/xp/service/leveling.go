package service

import (
	"fmt"
	"math"

	"anoa.com/aiiforsaxp/internal/modules/xp/repository"
)

// XPPerLevel is fixed for every user and every achievement.
const XPPerLevel = repository.XPPerLevel

// LevelForXP holds the invariant level = floor(xp / XPPerLevel) + 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

type XPChange struct {
	NewXP     int
	NewLevel  int
	LeveledUp bool
}

// ApplyXP computes the ledger transition for a non-negative award.
func ApplyXP(xp, level, amount int) (XPChange, error) {
	if amount < 0 {
		return XPChange{}, fmt.Errorf("xp amount must not be negative, got %d", amount)
	}
	newXP := xp + amount
	newLevel := LevelForXP(newXP)
	return XPChange{
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > level,
	}, nil
}

type LevelProgress struct {
	CurrentLevelXP  int
	NextLevelXP     int
	ProgressXP      int
	ProgressPercent float64
}

// ProgressFor reports xp mod XPPerLevel out of XPPerLevel, with the
// absolute XP at which the current level started and the next one starts.
func ProgressFor(xp int) LevelProgress {
	level := LevelForXP(xp)
	progress := xp % XPPerLevel
	if progress < 0 {
		progress = 0
	}
	pct := float64(progress) / float64(XPPerLevel) * 100
	return LevelProgress{
		CurrentLevelXP:  (level - 1) * XPPerLevel,
		NextLevelXP:     level * XPPerLevel,
		ProgressXP:      progress,
		ProgressPercent: math.Round(pct*100) / 100,
	}
}
