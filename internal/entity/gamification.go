package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AchievementCategory string

const (
	CategoryDaily     AchievementCategory = "DAILY"
	CategoryCareer    AchievementCategory = "CAREER"
	CategoryCommunity AchievementCategory = "COMMUNITY"
	CategoryCV        AchievementCategory = "CV"
	CategoryMilestone AchievementCategory = "MILESTONE"
	CategoryProfile   AchievementCategory = "PROFILE"
)

type ConditionType string

const (
	ConditionApplicationCount ConditionType = "APPLICATION_COUNT"
	ConditionInterviewCount   ConditionType = "INTERVIEW_COUNT"
	ConditionInteractionCount ConditionType = "INTERACTION_COUNT"
	ConditionCVCount          ConditionType = "CV_COUNT"
	ConditionProfileComplete  ConditionType = "PROFILE_COMPLETE"
	ConditionProjectCount     ConditionType = "PROJECT_COUNT"
	ConditionSkillCount       ConditionType = "SKILL_COUNT"
	ConditionExperienceCount  ConditionType = "EXPERIENCE_COUNT"
)

// CountConditions lists the condition types backed by a plain row count.
var CountConditions = []ConditionType{
	ConditionApplicationCount,
	ConditionInterviewCount,
	ConditionInteractionCount,
	ConditionCVCount,
	ConditionProjectCount,
	ConditionSkillCount,
	ConditionExperienceCount,
}

type AchievementDefinition struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Key            string              `gorm:"size:64;uniqueIndex;not null" json:"key" yaml:"key"`
	Title          string              `gorm:"size:120;not null" json:"title" yaml:"title"`
	Description    string              `gorm:"type:text" json:"description" yaml:"description"`
	Icon           string              `gorm:"size:16" json:"icon" yaml:"icon"`
	XPReward       int                 `gorm:"not null;default:0" json:"xpReward" yaml:"xp_reward"`
	Category       AchievementCategory `gorm:"size:20;not null;index" json:"category" yaml:"category"`
	Repeatable     bool                `gorm:"default:false" json:"repeatable" yaml:"repeatable"`
	MaxRepeats     *int                `json:"maxRepeats,omitempty" yaml:"max_repeats"`
	ConditionType  *ConditionType      `gorm:"size:32" json:"conditionType,omitempty" yaml:"condition_type"`
	ConditionValue *int                `json:"conditionValue,omitempty" yaml:"condition_value"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"-" yaml:"-"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"-" yaml:"-"`
}

func (a *AchievementDefinition) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// UserAchievement is unique per (user_id, achievement_def_id). Repeat awards
// bump EarnCount on the same row.
type UserAchievement struct {
	ID               uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"userId"`
	AchievementDefID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievementDefId"`
	AchievementDef   AchievementDefinition `gorm:"foreignKey:AchievementDefID;constraint:OnDelete:CASCADE" json:"achievementDef"`
	EarnCount        int                   `gorm:"not null;default:1" json:"earnCount"`
	AwardedAt        time.Time             `gorm:"not null" json:"awardedAt"`
	Claimed          bool                  `gorm:"default:false" json:"claimed"`
	ClaimedAt        *time.Time            `json:"claimedAt"`
	Meta             datatypes.JSON        `json:"meta,omitempty"`
}

func (u *UserAchievement) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

type BadgeDefinition struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Level       int       `gorm:"uniqueIndex;not null" json:"level" yaml:"level"`
	Name        string    `gorm:"size:100;not null" json:"name" yaml:"name"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	Icon        string    `gorm:"size:16" json:"icon" yaml:"icon"`
	Color       string    `gorm:"size:16" json:"color" yaml:"color"`
}

func (b *BadgeDefinition) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}

type DailyChallenge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Key         string    `gorm:"size:64;uniqueIndex;not null" json:"key" yaml:"key"`
	Title       string    `gorm:"size:120;not null" json:"title" yaml:"title"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	Icon        string    `gorm:"size:16" json:"icon" yaml:"icon"`
	XPReward    int       `gorm:"not null;default:0" json:"xpReward" yaml:"xp_reward"`
}

func (d *DailyChallenge) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID, err = uuid.NewV7()
	}
	return
}

// DailyChallengeCompletion is unique per (user_id, challenge_key, day).
// Day is a YYYY-MM-DD string in the configured day-boundary location.
type DailyChallengeCompletion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_completion,priority:1;index:idx_daily_user_day,priority:1" json:"userId"`
	ChallengeKey string    `gorm:"size:64;not null;uniqueIndex:idx_daily_completion,priority:2" json:"challengeKey"`
	Day          string    `gorm:"size:10;not null;uniqueIndex:idx_daily_completion,priority:3;index:idx_daily_user_day,priority:2" json:"day"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
