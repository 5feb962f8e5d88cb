package bootstrap

import (
	_ "embed"
	"fmt"
	"log"

	"anoa.com/aiiforsaxp/internal/entity"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedData struct {
	Achievements    []entity.AchievementDefinition `yaml:"achievements"`
	Badges          []entity.BadgeDefinition       `yaml:"badges"`
	DailyChallenges []entity.DailyChallenge        `yaml:"daily_challenges"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.AchievementDefinition{},
		&entity.UserAchievement{},
		&entity.BadgeDefinition{},
		&entity.DailyChallenge{},
		&entity.DailyChallengeCompletion{},
		&entity.Notification{},
	)
}

// LoadSeed parses seed data; nil raw means the embedded defaults.
func LoadSeed(raw []byte) (*SeedData, error) {
	if raw == nil {
		raw = defaultSeed
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for _, def := range data.Achievements {
		if def.Key == "" || def.XPReward < 0 {
			return nil, fmt.Errorf("invalid achievement seed %q", def.Key)
		}
		if def.ConditionType != nil && def.ConditionValue == nil {
			return nil, fmt.Errorf("achievement %s has a condition without a value", def.Key)
		}
	}
	return &data, nil
}

// Seed upserts definitions by their natural key, so running it again only
// refreshes titles, rewards and the like. Earned achievements are untouched.
func Seed(db *gorm.DB, data *SeedData) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range data.Achievements {
			def := data.Achievements[i]
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "description", "icon", "xp_reward", "category",
					"repeatable", "max_repeats", "condition_type", "condition_value", "updated_at",
				}),
			}).Create(&def).Error
			if err != nil {
				return fmt.Errorf("seed achievement %s: %w", def.Key, err)
			}
		}
		log.Printf("✅ Seeded %d achievement definitions", len(data.Achievements))

		for i := range data.Badges {
			badge := data.Badges[i]
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "level"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "color"}),
			}).Create(&badge).Error
			if err != nil {
				return fmt.Errorf("seed badge level %d: %w", badge.Level, err)
			}
		}
		log.Printf("✅ Seeded %d badges", len(data.Badges))

		for i := range data.DailyChallenges {
			challenge := data.DailyChallenges[i]
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "description", "icon", "xp_reward"}),
			}).Create(&challenge).Error
			if err != nil {
				return fmt.Errorf("seed daily challenge %s: %w", challenge.Key, err)
			}
		}
		log.Printf("✅ Seeded %d daily challenges", len(data.DailyChallenges))

		return nil
	})
}
