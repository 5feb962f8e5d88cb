package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"anoa.com/aiiforsaxp/internal/entity"
	xpDto "anoa.com/aiiforsaxp/internal/modules/xp/dto"
	xpRepo "anoa.com/aiiforsaxp/internal/modules/xp/repository"
	"anoa.com/aiiforsaxp/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type XPService interface {
	// TriggerEvent awards the achievement identified by key if its condition
	// holds. Unknown keys and unmet conditions yield a zero-effect result.
	TriggerEvent(ctx context.Context, userID uuid.UUID, key string, meta map[string]any) (*xpDto.TriggerResult, error)
	CompleteDailyChallenge(ctx context.Context, userID uuid.UUID, challengeKey string) (*xpDto.TriggerResult, error)
	// CheckMilestones re-evaluates every count-based achievement.
	CheckMilestones(ctx context.Context, userID uuid.UUID) (*xpDto.TriggerResult, error)
	GetXPStatus(ctx context.Context, userID uuid.UUID) (*xpDto.XPStatusResponse, error)
	RedeemAchievement(ctx context.Context, userID, userAchievementID uuid.UUID) (*xpDto.UserAchievementResponse, error)
	AchievementsWithProgress(ctx context.Context, userID uuid.UUID) ([]xpDto.AchievementProgressResponse, error)
	BadgeDefinitions(ctx context.Context) ([]xpDto.BadgeSummary, error)
	Leaderboard(ctx context.Context, limit int) ([]xpDto.LeaderboardEntry, error)
	EventKeys(ctx context.Context) ([]string, error)
}

type Settings struct {
	MaxDailyChallenges int
	DayLocation        *time.Location
	Now                func() time.Time
}

type xpService struct {
	repo      xpRepo.XPRepository
	counts    xpRepo.CountProvider
	evaluator *Evaluator
	maxDaily  int
	dayLoc    *time.Location
	now       func() time.Time
}

// errNoEffect rolls back a transaction whose award turned out to be a
// duplicate of a concurrent one.
var errNoEffect = errors.New("award had no effect")

func NewXPService(repo xpRepo.XPRepository, counts xpRepo.CountProvider, settings Settings) XPService {
	if settings.MaxDailyChallenges <= 0 {
		settings.MaxDailyChallenges = DefaultMaxDailyChallenges
	}
	if settings.DayLocation == nil {
		settings.DayLocation = time.UTC
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &xpService{
		repo:      repo,
		counts:    counts,
		evaluator: NewEvaluator(counts),
		maxDaily:  settings.MaxDailyChallenges,
		dayLoc:    settings.DayLocation,
		now:       settings.Now,
	}
}

func (s *xpService) TriggerEvent(ctx context.Context, userID uuid.UUID, key string, meta map[string]any) (*xpDto.TriggerResult, error) {
	def, err := s.repo.FindDefinitionByKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Printf("⚠️ Unknown achievement key %q triggered by user %s, ignoring", key, userID)
			return s.zeroResult(ctx, userID)
		}
		return nil, err
	}

	narrowed := NarrowMeta(meta)
	current, ok, err := s.evaluator.Evaluate(ctx, userID, def, narrowed)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", def.Key, err)
	}
	if !ok {
		return s.zeroResult(ctx, userID)
	}

	// repeatable count achievements are earned once per threshold batch
	earnLimit := 0
	if def.Repeatable && def.ConditionType != nil {
		earnLimit = milestoneAwardsDue(def, current)
	}
	return s.award(ctx, userID, def, narrowed, earnLimit)
}

func (s *xpService) CompleteDailyChallenge(ctx context.Context, userID uuid.UUID, challengeKey string) (*xpDto.TriggerResult, error) {
	if _, err := s.repo.FindDailyChallenge(ctx, challengeKey); err != nil {
		return nil, err
	}
	return s.TriggerEvent(ctx, userID, challengeKey, nil)
}

// award writes the achievement, the daily completion (if any) and the XP
// increment in one transaction, holding the user row lock throughout. A
// positive earnLimit caps the earn count the award may reach.
func (s *xpService) award(ctx context.Context, userID uuid.UUID, def *entity.AchievementDefinition, meta Meta, earnLimit int) (*xpDto.TriggerResult, error) {
	var result *xpDto.TriggerResult
	now := s.now()

	err := s.repo.Transaction(ctx, func(tx xpRepo.XPRepository) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		result = newResult(user)

		isDaily := def.Category == entity.CategoryDaily
		day := DayKey(now, s.dayLoc)
		if isDaily {
			allowed, err := CheckDailyLimit(ctx, tx, userID, def.Key, day, s.maxDaily)
			if err != nil {
				return err
			}
			if !allowed {
				return nil
			}
		}

		earnCount, err := s.recordAchievement(ctx, tx, userID, def, meta, earnLimit, now)
		if err != nil || earnCount == 0 {
			return err
		}

		if isDaily {
			created, err := tx.CreateDailyCompletion(ctx, &entity.DailyChallengeCompletion{
				UserID:       userID,
				ChallengeKey: def.Key,
				Day:          day,
			})
			if err != nil {
				return err
			}
			if !created {
				return errNoEffect
			}
		}

		change, err := ApplyXP(user.XP, user.Level, def.XPReward)
		if err != nil {
			return err
		}
		updated, err := tx.IncrementXP(ctx, userID, def.XPReward)
		if err != nil {
			return err
		}

		result.XP = updated.XP
		result.Level = updated.Level
		result.XPGained = def.XPReward
		result.AwardedAchievements = append(result.AwardedAchievements, xpDto.AwardedAchievement{
			ID:        def.ID,
			Key:       def.Key,
			Title:     def.Title,
			XPReward:  def.XPReward,
			Icon:      def.Icon,
			EarnCount: earnCount,
		})

		if updated.Level > user.Level {
			result.LeveledUp = true
			newLevel := updated.Level
			result.NewLevel = &newLevel

			badges, err := tx.ListBadges(ctx)
			if err != nil {
				return err
			}
			if badge := NewlyUnlockedBadge(badges, user.Level, updated.Level); badge != nil {
				result.NewBadges = append(result.NewBadges, *toBadgeSummary(badge))
			}
		}

		if updated.XP != change.NewXP {
			log.Printf("⚠️ XP drift for user %s: expected %d, stored %d", userID, change.NewXP, updated.XP)
		}
		return nil
	})

	if errors.Is(err, errNoEffect) {
		return s.zeroResult(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	if result.XPGained > 0 || len(result.AwardedAchievements) > 0 {
		log.Printf("🏆 User %s earned %s (+%d XP, level %d)", userID, def.Key, result.XPGained, result.Level)
	}
	return result, nil
}

// recordAchievement returns the new earn count, or 0 when nothing was
// awarded (already awarded, capped, or lost a race).
func (s *xpService) recordAchievement(ctx context.Context, tx xpRepo.XPRepository, userID uuid.UUID, def *entity.AchievementDefinition, meta Meta, earnLimit int, now time.Time) (int, error) {
	existing, err := tx.FindUserAchievement(ctx, userID, def.ID)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		created, err := tx.CreateUserAchievement(ctx, &entity.UserAchievement{
			UserID:           userID,
			AchievementDefID: def.ID,
			EarnCount:        1,
			AwardedAt:        now,
			Meta:             meta.JSON(),
		})
		if err != nil {
			return 0, err
		}
		if !created {
			return 0, errNoEffect
		}
		return 1, nil
	}

	if !def.Repeatable {
		return 0, nil
	}
	if def.MaxRepeats != nil && existing.EarnCount >= *def.MaxRepeats {
		return 0, nil
	}
	if earnLimit > 0 && existing.EarnCount >= earnLimit {
		return 0, nil
	}

	updated, err := tx.IncrementEarnCount(ctx, existing.ID, existing.EarnCount, meta.JSON(), now)
	if err != nil {
		return 0, err
	}
	if !updated {
		return 0, errNoEffect
	}
	return existing.EarnCount + 1, nil
}

func (s *xpService) CheckMilestones(ctx context.Context, userID uuid.UUID) (*xpDto.TriggerResult, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.counts == nil {
		return newResult(user), nil
	}

	var (
		defs   []entity.AchievementDefinition
		owned  []entity.UserAchievement
		counts xpRepo.Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defs, err = s.repo.ListDefinitions(gctx)
		return
	})
	g.Go(func() (err error) {
		owned, err = s.repo.ListUserAchievements(gctx, userID)
		return
	})
	g.Go(func() (err error) {
		counts, err = s.counts.Snapshot(gctx, userID)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	earned := make(map[uuid.UUID]int, len(owned))
	for _, ua := range owned {
		earned[ua.AchievementDefID] = ua.EarnCount
	}

	total := newResult(user)
	for i := range defs {
		def := &defs[i]
		if def.ConditionType == nil || def.Category == entity.CategoryDaily {
			continue
		}

		due := milestoneAwardsDue(def, counts[*def.ConditionType])
		for n := earned[def.ID]; n < due; n++ {
			res, err := s.award(ctx, userID, def, Meta{}, due)
			if err != nil {
				return nil, fmt.Errorf("milestone %s: %w", def.Key, err)
			}
			mergeResult(total, res)
			if len(res.AwardedAchievements) == 0 {
				break
			}
		}
	}

	total.LeveledUp = total.Level > user.Level
	if total.LeveledUp {
		newLevel := total.Level
		total.NewLevel = &newLevel
	}
	return total, nil
}

// milestoneAwardsDue is how many times a count-based achievement should have
// been earned so far. Repeatable ones are earned once per full threshold
// batch, bounded by MaxRepeats.
func milestoneAwardsDue(def *entity.AchievementDefinition, current int) int {
	if !Satisfies(def, current) {
		return 0
	}
	if !def.Repeatable || *def.ConditionType == entity.ConditionProfileComplete {
		return 1
	}

	due := 1
	if def.ConditionValue != nil && *def.ConditionValue > 0 {
		due = current / *def.ConditionValue
	}
	if def.MaxRepeats != nil && due > *def.MaxRepeats {
		due = *def.MaxRepeats
	}
	return due
}

func (s *xpService) GetXPStatus(ctx context.Context, userID uuid.UUID) (*xpDto.XPStatusResponse, error) {
	day := DayKey(s.now(), s.dayLoc)

	var (
		user        *entity.User
		owned       []entity.UserAchievement
		badges      []entity.BadgeDefinition
		challenges  []entity.DailyChallenge
		completions []entity.DailyChallengeCompletion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = s.repo.FindUser(gctx, userID)
		return
	})
	g.Go(func() (err error) {
		owned, err = s.repo.ListUserAchievements(gctx, userID)
		return
	})
	g.Go(func() (err error) {
		badges, err = s.repo.ListBadges(gctx)
		return
	})
	g.Go(func() (err error) {
		challenges, err = s.repo.ListDailyChallenges(gctx)
		return
	})
	g.Go(func() (err error) {
		completions, err = s.repo.ListDailyCompletions(gctx, userID, day)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := ProgressFor(user.XP)
	status := &xpDto.XPStatusResponse{
		XP:              user.XP,
		Level:           user.Level,
		CurrentLevelXP:  progress.CurrentLevelXP,
		NextLevelXP:     progress.NextLevelXP,
		ProgressXP:      progress.ProgressXP,
		ProgressPercent: progress.ProgressPercent,
		XPPerLevel:      XPPerLevel,
		Achievements:    make([]xpDto.UserAchievementResponse, 0, len(owned)),
		Badges:          []xpDto.BadgeSummary{},
		CurrentBadge:    toBadgeSummary(BadgeForLevel(badges, user.Level)),
	}

	for i := range owned {
		status.Achievements = append(status.Achievements, toUserAchievementResponse(&owned[i]))
	}
	for _, b := range BadgesOwned(badges, user.Level) {
		b := b
		status.Badges = append(status.Badges, *toBadgeSummary(&b))
	}

	done := make(map[string]bool, len(completions))
	for _, c := range completions {
		done[c.ChallengeKey] = true
	}
	status.DailyChallenges = xpDto.DailyChallengesSummary{
		Available:      make([]xpDto.DailyChallengeStatus, 0, len(challenges)),
		CompletedToday: len(completions),
		MaxDaily:       s.maxDaily,
	}
	for _, dc := range challenges {
		status.DailyChallenges.Available = append(status.DailyChallenges.Available, xpDto.DailyChallengeStatus{
			ID:          dc.ID,
			Key:         dc.Key,
			Title:       dc.Title,
			Description: dc.Description,
			XPReward:    dc.XPReward,
			Icon:        dc.Icon,
			Completed:   done[dc.Key],
		})
	}

	return status, nil
}

func (s *xpService) RedeemAchievement(ctx context.Context, userID, userAchievementID uuid.UUID) (*xpDto.UserAchievementResponse, error) {
	ua, err := s.repo.FindUserAchievementByID(ctx, userID, userAchievementID)
	if err != nil {
		return nil, err
	}
	if ua.Claimed {
		return nil, apperror.New(http.StatusBadRequest, "achievement already claimed", apperror.ErrBadRequest)
	}

	now := s.now()
	claimed, err := s.repo.MarkClaimed(ctx, ua.ID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperror.New(http.StatusBadRequest, "achievement already claimed", apperror.ErrBadRequest)
	}

	ua.Claimed = true
	ua.ClaimedAt = &now
	res := toUserAchievementResponse(ua)
	return &res, nil
}

func (s *xpService) AchievementsWithProgress(ctx context.Context, userID uuid.UUID) ([]xpDto.AchievementProgressResponse, error) {
	var (
		defs   []entity.AchievementDefinition
		owned  []entity.UserAchievement
		counts xpRepo.Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defs, err = s.repo.ListDefinitions(gctx)
		return
	})
	g.Go(func() (err error) {
		owned, err = s.repo.ListUserAchievements(gctx, userID)
		return
	})
	if s.counts != nil {
		g.Go(func() (err error) {
			counts, err = s.counts.Snapshot(gctx, userID)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byDef := make(map[uuid.UUID]*entity.UserAchievement, len(owned))
	for i := range owned {
		byDef[owned[i].AchievementDefID] = &owned[i]
	}

	out := make([]xpDto.AchievementProgressResponse, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		item := xpDto.AchievementProgressResponse{
			ID:             def.ID,
			Key:            def.Key,
			Title:          def.Title,
			Description:    def.Description,
			XPReward:       def.XPReward,
			Icon:           def.Icon,
			Category:       def.Category,
			ConditionType:  def.ConditionType,
			ConditionValue: def.ConditionValue,
			Repeatable:     def.Repeatable,
			MaxRepeats:     def.MaxRepeats,
		}

		ua := byDef[def.ID]
		if ua != nil {
			id := ua.ID
			awardedAt := ua.AwardedAt
			item.Earned = true
			item.EarnCount = ua.EarnCount
			item.Claimed = ua.Claimed
			item.ClaimedAt = ua.ClaimedAt
			item.AwardedAt = &awardedAt
			item.UserAchievementID = &id
		}

		current, target := 0, 1
		if def.ConditionType != nil {
			current = counts[*def.ConditionType]
			if def.ConditionValue != nil && *def.ConditionValue > 0 {
				target = *def.ConditionValue
			}
		} else if ua != nil {
			current = 1
		}
		item.Progress = progressOf(current, target)

		out = append(out, item)
	}

	return out, nil
}

func progressOf(current, target int) xpDto.Progress {
	if current > target {
		current = target
	}
	return xpDto.Progress{
		Current: current,
		Target:  target,
		Percent: current * 100 / target,
	}
}

func (s *xpService) BadgeDefinitions(ctx context.Context) ([]xpDto.BadgeSummary, error) {
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]xpDto.BadgeSummary, 0, len(badges))
	for _, b := range sortBadges(badges) {
		b := b
		out = append(out, *toBadgeSummary(&b))
	}
	return out, nil
}

func (s *xpService) Leaderboard(ctx context.Context, limit int) ([]xpDto.LeaderboardEntry, error) {
	users, err := s.repo.TopUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]xpDto.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		name := u.Name
		if name == "" {
			name = "Anonymous"
		}
		entries = append(entries, xpDto.LeaderboardEntry{
			Rank:         i + 1, // 1-based position
			ID:           u.ID,
			Name:         name,
			ProfileImage: u.ProfileImage,
			XP:           u.XP,
			Level:        u.Level,
			CurrentBadge: toBadgeSummary(BadgeForLevel(badges, u.Level)),
		})
	}
	return entries, nil
}

func (s *xpService) EventKeys(ctx context.Context) ([]string, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		keys = append(keys, d.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *xpService) zeroResult(ctx context.Context, userID uuid.UUID) (*xpDto.TriggerResult, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newResult(user), nil
}

func newResult(user *entity.User) *xpDto.TriggerResult {
	return &xpDto.TriggerResult{
		XP:                  user.XP,
		Level:               user.Level,
		AwardedAchievements: []xpDto.AwardedAchievement{},
		NewBadges:           []xpDto.BadgeSummary{},
	}
}

// mergeResult folds step into total. Total keeps the latest XP/level; at
// most one badge (the highest) is reported across the merged steps.
func mergeResult(total, step *xpDto.TriggerResult) {
	total.XP = step.XP
	total.Level = step.Level
	total.XPGained += step.XPGained
	total.AwardedAchievements = append(total.AwardedAchievements, step.AwardedAchievements...)
	for _, b := range step.NewBadges {
		if len(total.NewBadges) == 0 {
			total.NewBadges = append(total.NewBadges, b)
		} else if b.Level > total.NewBadges[0].Level {
			total.NewBadges[0] = b
		}
	}
}

func toUserAchievementResponse(ua *entity.UserAchievement) xpDto.UserAchievementResponse {
	return xpDto.UserAchievementResponse{
		ID:          ua.ID,
		Key:         ua.AchievementDef.Key,
		Title:       ua.AchievementDef.Title,
		Description: ua.AchievementDef.Description,
		XPReward:    ua.AchievementDef.XPReward,
		Icon:        ua.AchievementDef.Icon,
		Category:    ua.AchievementDef.Category,
		Claimed:     ua.Claimed,
		ClaimedAt:   ua.ClaimedAt,
		EarnCount:   ua.EarnCount,
		AwardedAt:   ua.AwardedAt,
	}
}
