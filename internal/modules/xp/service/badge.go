package service

import (
	"sort"

	"anoa.com/aiiforsaxp/internal/entity"
	"anoa.com/aiiforsaxp/internal/modules/xp/dto"
)

// Badge ownership is derived from level alone; nothing per user is stored.

func sortBadges(badges []entity.BadgeDefinition) []entity.BadgeDefinition {
	sorted := make([]entity.BadgeDefinition, len(badges))
	copy(sorted, badges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	return sorted
}

// BadgeForLevel returns the highest badge whose level is <= level, or nil.
func BadgeForLevel(badges []entity.BadgeDefinition, level int) *entity.BadgeDefinition {
	sorted := sortBadges(badges)
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Level > level })
	if idx == 0 {
		return nil
	}
	b := sorted[idx-1]
	return &b
}

// NewlyUnlockedBadge reports the current badge for newLevel when it differs
// from the one implied by oldLevel. A jump over several badge levels yields
// only the highest one.
func NewlyUnlockedBadge(badges []entity.BadgeDefinition, oldLevel, newLevel int) *entity.BadgeDefinition {
	if newLevel <= oldLevel {
		return nil
	}
	next := BadgeForLevel(badges, newLevel)
	if next == nil {
		return nil
	}
	prev := BadgeForLevel(badges, oldLevel)
	if prev != nil && prev.Level == next.Level {
		return nil
	}
	return next
}

// BadgesOwned lists every badge reached at level, lowest first.
func BadgesOwned(badges []entity.BadgeDefinition, level int) []entity.BadgeDefinition {
	owned := make([]entity.BadgeDefinition, 0, len(badges))
	for _, b := range sortBadges(badges) {
		if b.Level > level {
			break
		}
		owned = append(owned, b)
	}
	return owned
}

func toBadgeSummary(b *entity.BadgeDefinition) *dto.BadgeSummary {
	if b == nil {
		return nil
	}
	return &dto.BadgeSummary{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Level:       b.Level,
		Icon:        b.Icon,
		Color:       b.Color,
	}
}
