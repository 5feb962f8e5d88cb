package dto

import (
	"time"

	"anoa.com/aiiforsaxp/internal/entity"
	"github.com/google/uuid"
)

type TriggerEventRequest struct {
	Key  string         `json:"key" binding:"required,max=64"`
	Meta map[string]any `json:"meta"`
}

type CompleteDailyChallengeRequest struct {
	ChallengeKey string `json:"challengeKey" binding:"required,max=64"`
}

type RedeemAchievementRequest struct {
	ID string `uri:"achievementId" binding:"required,uuid"`
}

type AwardedAchievement struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	XPReward  int       `json:"xpReward"`
	Icon      string    `json:"icon,omitempty"`
	EarnCount int       `json:"earnCount"`
}

type BadgeSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Level       int       `json:"level"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// TriggerResult is returned by every operation that may grant XP. A result
// with XPGained == 0 and no awarded achievements is a no-op.
type TriggerResult struct {
	XP                  int                  `json:"xp"`
	Level               int                  `json:"level"`
	XPGained            int                  `json:"xpGained"`
	LeveledUp           bool                 `json:"leveledUp"`
	NewLevel            *int                 `json:"newLevel,omitempty"`
	AwardedAchievements []AwardedAchievement `json:"awardedAchievements"`
	NewBadges           []BadgeSummary       `json:"newBadges"`
}

type UserAchievementResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Key         string                     `json:"key"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	XPReward    int                        `json:"xpReward"`
	Icon        string                     `json:"icon,omitempty"`
	Category    entity.AchievementCategory `json:"category"`
	Claimed     bool                       `json:"claimed"`
	ClaimedAt   *time.Time                 `json:"claimedAt"`
	EarnCount   int                        `json:"earnCount"`
	AwardedAt   time.Time                  `json:"awardedAt"`
}

type DailyChallengeStatus struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPReward    int       `json:"xpReward"`
	Icon        string    `json:"icon,omitempty"`
	Completed   bool      `json:"completed"`
}

type DailyChallengesSummary struct {
	Available      []DailyChallengeStatus `json:"available"`
	CompletedToday int                    `json:"completedToday"`
	MaxDaily       int                    `json:"maxDaily"`
}

type XPStatusResponse struct {
	XP              int                       `json:"xp"`
	Level           int                       `json:"level"`
	CurrentLevelXP  int                       `json:"currentLevelXp"`
	NextLevelXP     int                       `json:"nextLevelXp"`
	ProgressXP      int                       `json:"progressXp"`
	ProgressPercent float64                   `json:"progressPercent"`
	XPPerLevel      int                       `json:"xpPerLevel"`
	Achievements    []UserAchievementResponse `json:"achievements"`
	Badges          []BadgeSummary            `json:"badges"`
	CurrentBadge    *BadgeSummary             `json:"currentBadge"`
	DailyChallenges DailyChallengesSummary    `json:"dailyChallenges"`
}

type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
	Percent int `json:"percent"`
}

type AchievementProgressResponse struct {
	ID                uuid.UUID                  `json:"id"`
	Key               string                     `json:"key"`
	Title             string                     `json:"title"`
	Description       string                     `json:"description"`
	XPReward          int                        `json:"xpReward"`
	Icon              string                     `json:"icon,omitempty"`
	Category          entity.AchievementCategory `json:"category"`
	ConditionType     *entity.ConditionType      `json:"conditionType"`
	ConditionValue    *int                       `json:"conditionValue"`
	Repeatable        bool                       `json:"repeatable"`
	MaxRepeats        *int                       `json:"maxRepeats"`
	Earned            bool                       `json:"earned"`
	EarnCount         int                        `json:"earnCount"`
	Claimed           bool                       `json:"claimed"`
	ClaimedAt         *time.Time                 `json:"claimedAt"`
	AwardedAt         *time.Time                 `json:"awardedAt"`
	UserAchievementID *uuid.UUID                 `json:"userAchievementId"`
	Progress          Progress                   `json:"progress"`
}

type LeaderboardEntry struct {
	Rank         int           `json:"rank"`
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	ProfileImage *string       `json:"profileImage"`
	XP           int           `json:"xp"`
	Level        int           `json:"level"`
	CurrentBadge *BadgeSummary `json:"currentBadge"`
}
