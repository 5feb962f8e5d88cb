package service

import (
	"context"
	"time"

	"anoa.com/aiiforsaxp/internal/modules/xp/repository"
	"github.com/google/uuid"
)

const DefaultMaxDailyChallenges = 3

// DayKey formats the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// CheckDailyLimit allows one completion per (user, key, day) and at most
// maxDaily completions per user per day across all keys.
func CheckDailyLimit(ctx context.Context, repo repository.XPRepository, userID uuid.UUID, challengeKey, day string, maxDaily int) (bool, error) {
	completions, err := repo.ListDailyCompletions(ctx, userID, day)
	if err != nil {
		return false, err
	}
	if len(completions) >= maxDaily {
		return false, nil
	}
	for _, c := range completions {
		if c.ChallengeKey == challengeKey {
			return false, nil
		}
	}
	return true, nil
}
