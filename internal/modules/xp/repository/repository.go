package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/aiiforsaxp/internal/entity"
	"anoa.com/aiiforsaxp/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPPerLevel is the fixed amount of XP between two consecutive levels.
const XPPerLevel = 300

// XPRepository is the storage boundary of the progression engine. Methods
// called on the repository passed to Transaction's callback run inside that
// transaction.
type XPRepository interface {
	Transaction(ctx context.Context, fn func(repo XPRepository) error) error

	FindUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	// LockUser loads the user row and holds a write lock on it until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	// IncrementXP adds amount to the user's XP in a single statement and
	// recomputes the level from the new total.
	IncrementXP(ctx context.Context, userID uuid.UUID, amount int) (*entity.User, error)
	TopUsers(ctx context.Context, limit int) ([]entity.User, error)

	FindDefinitionByKey(ctx context.Context, key string) (*entity.AchievementDefinition, error)
	ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error)

	FindUserAchievement(ctx context.Context, userID, defID uuid.UUID) (*entity.UserAchievement, error)
	FindUserAchievementByID(ctx context.Context, userID, id uuid.UUID) (*entity.UserAchievement, error)
	ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error)
	// CreateUserAchievement reports false when a row for the same
	// (user, definition) pair already exists.
	CreateUserAchievement(ctx context.Context, ua *entity.UserAchievement) (bool, error)
	// IncrementEarnCount bumps earn_count only if it still equals expected.
	IncrementEarnCount(ctx context.Context, id uuid.UUID, expected int, meta datatypes.JSON, at time.Time) (bool, error)
	MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	ListBadges(ctx context.Context) ([]entity.BadgeDefinition, error)

	ListDailyChallenges(ctx context.Context) ([]entity.DailyChallenge, error)
	FindDailyChallenge(ctx context.Context, key string) (*entity.DailyChallenge, error)
	ListDailyCompletions(ctx context.Context, userID uuid.UUID, day string) ([]entity.DailyChallengeCompletion, error)
	// CreateDailyCompletion reports false when the (user, key, day) row exists.
	CreateDailyCompletion(ctx context.Context, c *entity.DailyChallengeCompletion) (bool, error)
}

// "key" is a keyword in some dialects, so it is always quoted.
var byKey = clause.OrderByColumn{Column: clause.Column{Name: "key"}}

type xpRepository struct {
	db *gorm.DB
}

func NewXPRepository(db *gorm.DB) XPRepository {
	return &xpRepository{db: db}
}

func (r *xpRepository) Transaction(ctx context.Context, fn func(repo XPRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&xpRepository{db: tx})
	})
}

func (r *xpRepository) FindUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err, "user %s", userID)
	}
	return &user, nil
}

func (r *xpRepository) LockUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user %s", userID)
	}
	return &user, nil
}

func (r *xpRepository) IncrementXP(ctx context.Context, userID uuid.UUID, amount int) (*entity.User, error) {
	// Both SET expressions read the pre-update xp value.
	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"xp":    gorm.Expr("xp + ?", amount),
			"level": gorm.Expr("(xp + ?) / ? + 1", amount, XPPerLevel),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	return r.FindUser(ctx, userID)
}

func (r *xpRepository) TopUsers(ctx context.Context, limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("xp DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *xpRepository) FindDefinitionByKey(ctx context.Context, key string) (*entity.AchievementDefinition, error) {
	var def entity.AchievementDefinition
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&def).Error; err != nil {
		return nil, notFound(err, "achievement %q", key)
	}
	return &def, nil
}

func (r *xpRepository) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	var defs []entity.AchievementDefinition
	err := r.db.WithContext(ctx).
		Order("category ASC").
		Order("xp_reward DESC").
		Order(byKey).
		Find(&defs).Error
	return defs, err
}

func (r *xpRepository) FindUserAchievement(ctx context.Context, userID, defID uuid.UUID) (*entity.UserAchievement, error) {
	var ua entity.UserAchievement
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND achievement_def_id = ?", userID, defID).
		First(&ua).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ua, nil
}

func (r *xpRepository) FindUserAchievementByID(ctx context.Context, userID, id uuid.UUID) (*entity.UserAchievement, error) {
	var ua entity.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("AchievementDef").
		Where("id = ? AND user_id = ?", id, userID).
		First(&ua).Error
	if err != nil {
		return nil, notFound(err, "achievement %s", id)
	}
	return &ua, nil
}

func (r *xpRepository) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	var uas []entity.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("AchievementDef").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&uas).Error
	return uas, err
}

func (r *xpRepository) CreateUserAchievement(ctx context.Context, ua *entity.UserAchievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("AchievementDef").
		Create(ua)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *xpRepository) IncrementEarnCount(ctx context.Context, id uuid.UUID, expected int, meta datatypes.JSON, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"earn_count": gorm.Expr("earn_count + 1"),
		"awarded_at": at,
		"claimed":    false,
		"claimed_at": nil,
	}
	if len(meta) > 0 {
		updates["meta"] = meta
	}

	res := r.db.WithContext(ctx).Model(&entity.UserAchievement{}).
		Where("id = ? AND earn_count = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *xpRepository) MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.UserAchievement{}).
		Where("id = ? AND claimed = ?", id, false).
		Updates(map[string]interface{}{
			"claimed":    true,
			"claimed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *xpRepository) ListBadges(ctx context.Context) ([]entity.BadgeDefinition, error) {
	var badges []entity.BadgeDefinition
	err := r.db.WithContext(ctx).Order("level ASC").Find(&badges).Error
	return badges, err
}

func (r *xpRepository) ListDailyChallenges(ctx context.Context) ([]entity.DailyChallenge, error) {
	var challenges []entity.DailyChallenge
	err := r.db.WithContext(ctx).Order(byKey).Find(&challenges).Error
	return challenges, err
}

func (r *xpRepository) FindDailyChallenge(ctx context.Context, key string) (*entity.DailyChallenge, error) {
	var challenge entity.DailyChallenge
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&challenge).Error; err != nil {
		return nil, notFound(err, "daily challenge %q", key)
	}
	return &challenge, nil
}

func (r *xpRepository) ListDailyCompletions(ctx context.Context, userID uuid.UUID, day string) ([]entity.DailyChallengeCompletion, error) {
	var completions []entity.DailyChallengeCompletion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("id ASC").
		Find(&completions).Error
	return completions, err
}

func (r *xpRepository) CreateDailyCompletion(ctx context.Context, c *entity.DailyChallengeCompletion) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, apperror.ErrNotFound)...)
	}
	return err
}
