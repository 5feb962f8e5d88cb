package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"anoa.com/aiiforsaxp/internal/entity"
	xpRepo "anoa.com/aiiforsaxp/internal/modules/xp/repository"
	"anoa.com/aiiforsaxp/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// memStore is an in-memory XPRepository. A transaction holds the store
// mutex for its whole callback and restores a snapshot when it fails, which
// mirrors the row lock plus rollback of the real repository.
type memStore struct {
	mu sync.Mutex

	users       map[uuid.UUID]entity.User
	defs        []entity.AchievementDefinition
	uas         map[uuid.UUID]entity.UserAchievement
	badges      []entity.BadgeDefinition
	challenges  []entity.DailyChallenge
	completions []entity.DailyChallengeCompletion
	nextCompID  uint
}

type memState struct {
	users       map[uuid.UUID]entity.User
	uas         map[uuid.UUID]entity.UserAchievement
	completions []entity.DailyChallengeCompletion
	nextCompID  uint
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]entity.User),
		uas:   make(map[uuid.UUID]entity.UserAchievement),
	}
}

func (s *memStore) repo() xpRepo.XPRepository {
	return &memRepo{store: s}
}

func (s *memStore) addUser(xp int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = entity.User{
		ID:        id,
		Name:      "user-" + id.String()[:8],
		IsActive:  true,
		XP:        xp,
		Level:     LevelForXP(xp),
		CreatedAt: time.Now(),
	}
	return id
}

func (s *memStore) addDefinition(def entity.AchievementDefinition) entity.AchievementDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	s.defs = append(s.defs, def)
	return def
}

func (s *memStore) user(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) earnCount(userID, defID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ua := range s.uas {
		if ua.UserID == userID && ua.AchievementDefID == defID {
			return ua.EarnCount
		}
	}
	return 0
}

func (s *memStore) snapshot() memState {
	st := memState{
		users:       make(map[uuid.UUID]entity.User, len(s.users)),
		uas:         make(map[uuid.UUID]entity.UserAchievement, len(s.uas)),
		completions: append([]entity.DailyChallengeCompletion(nil), s.completions...),
		nextCompID:  s.nextCompID,
	}
	for k, v := range s.users {
		st.users[k] = v
	}
	for k, v := range s.uas {
		st.uas[k] = v
	}
	return st
}

func (s *memStore) restore(st memState) {
	s.users = st.users
	s.uas = st.uas
	s.completions = st.completions
	s.nextCompID = st.nextCompID
}

type memRepo struct {
	store *memStore
	inTx  bool
}

func (r *memRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memRepo) Transaction(ctx context.Context, fn func(repo xpRepo.XPRepository) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	saved := r.store.snapshot()
	if err := fn(&memRepo{store: r.store, inTx: true}); err != nil {
		r.store.restore(saved)
		return err
	}
	return nil
}

func (r *memRepo) FindUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	defer r.lock()()
	u, ok := r.store.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	return &u, nil
}

func (r *memRepo) LockUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return r.FindUser(ctx, userID)
}

func (r *memRepo) IncrementXP(ctx context.Context, userID uuid.UUID, amount int) (*entity.User, error) {
	defer r.lock()()
	u, ok := r.store.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	u.XP += amount
	u.Level = u.XP/xpRepo.XPPerLevel + 1
	r.store.users[userID] = u
	return &u, nil
}

func (r *memRepo) TopUsers(ctx context.Context, limit int) ([]entity.User, error) {
	defer r.lock()()
	users := make([]entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		if u.IsActive {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].XP != users[j].XP {
			return users[i].XP > users[j].XP
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *memRepo) FindDefinitionByKey(ctx context.Context, key string) (*entity.AchievementDefinition, error) {
	defer r.lock()()
	for _, d := range r.store.defs {
		if d.Key == key {
			d := d
			return &d, nil
		}
	}
	return nil, fmt.Errorf("achievement %q: %w", key, apperror.ErrNotFound)
}

func (r *memRepo) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	defer r.lock()()
	return append([]entity.AchievementDefinition(nil), r.store.defs...), nil
}

func (r *memRepo) definition(id uuid.UUID) entity.AchievementDefinition {
	for _, d := range r.store.defs {
		if d.ID == id {
			return d
		}
	}
	return entity.AchievementDefinition{}
}

func (r *memRepo) FindUserAchievement(ctx context.Context, userID, defID uuid.UUID) (*entity.UserAchievement, error) {
	defer r.lock()()
	for _, ua := range r.store.uas {
		if ua.UserID == userID && ua.AchievementDefID == defID {
			ua := ua
			return &ua, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindUserAchievementByID(ctx context.Context, userID, id uuid.UUID) (*entity.UserAchievement, error) {
	defer r.lock()()
	ua, ok := r.store.uas[id]
	if !ok || ua.UserID != userID {
		return nil, fmt.Errorf("achievement %s: %w", id, apperror.ErrNotFound)
	}
	ua.AchievementDef = r.definition(ua.AchievementDefID)
	return &ua, nil
}

func (r *memRepo) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	defer r.lock()()
	var out []entity.UserAchievement
	for _, ua := range r.store.uas {
		if ua.UserID == userID {
			ua.AchievementDef = r.definition(ua.AchievementDefID)
			out = append(out, ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AwardedAt.After(out[j].AwardedAt) })
	return out, nil
}

func (r *memRepo) CreateUserAchievement(ctx context.Context, ua *entity.UserAchievement) (bool, error) {
	defer r.lock()()
	for _, existing := range r.store.uas {
		if existing.UserID == ua.UserID && existing.AchievementDefID == ua.AchievementDefID {
			return false, nil
		}
	}
	if ua.ID == uuid.Nil {
		ua.ID = uuid.New()
	}
	r.store.uas[ua.ID] = *ua
	return true, nil
}

func (r *memRepo) IncrementEarnCount(ctx context.Context, id uuid.UUID, expected int, meta datatypes.JSON, at time.Time) (bool, error) {
	defer r.lock()()
	ua, ok := r.store.uas[id]
	if !ok || ua.EarnCount != expected {
		return false, nil
	}
	ua.EarnCount++
	ua.AwardedAt = at
	ua.Claimed = false
	ua.ClaimedAt = nil
	if len(meta) > 0 {
		ua.Meta = meta
	}
	r.store.uas[id] = ua
	return true, nil
}

func (r *memRepo) MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	defer r.lock()()
	ua, ok := r.store.uas[id]
	if !ok || ua.Claimed {
		return false, nil
	}
	ua.Claimed = true
	ua.ClaimedAt = &at
	r.store.uas[id] = ua
	return true, nil
}

func (r *memRepo) ListBadges(ctx context.Context) ([]entity.BadgeDefinition, error) {
	defer r.lock()()
	return sortBadges(r.store.badges), nil
}

func (r *memRepo) ListDailyChallenges(ctx context.Context) ([]entity.DailyChallenge, error) {
	defer r.lock()()
	return append([]entity.DailyChallenge(nil), r.store.challenges...), nil
}

func (r *memRepo) FindDailyChallenge(ctx context.Context, key string) (*entity.DailyChallenge, error) {
	defer r.lock()()
	for _, c := range r.store.challenges {
		if c.Key == key {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("daily challenge %q: %w", key, apperror.ErrNotFound)
}

func (r *memRepo) ListDailyCompletions(ctx context.Context, userID uuid.UUID, day string) ([]entity.DailyChallengeCompletion, error) {
	defer r.lock()()
	var out []entity.DailyChallengeCompletion
	for _, c := range r.store.completions {
		if c.UserID == userID && c.Day == day {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) CreateDailyCompletion(ctx context.Context, c *entity.DailyChallengeCompletion) (bool, error) {
	defer r.lock()()
	for _, existing := range r.store.completions {
		if existing.UserID == c.UserID && existing.ChallengeKey == c.ChallengeKey && existing.Day == c.Day {
			return false, nil
		}
	}
	r.store.nextCompID++
	c.ID = r.store.nextCompID
	r.store.completions = append(r.store.completions, *c)
	return true, nil
}

// fixedCounts is a CountProvider backed by a map shared by all users.
type fixedCounts struct {
	mu     sync.Mutex
	counts xpRepo.Counts
}

func newFixedCounts(counts xpRepo.Counts) *fixedCounts {
	return &fixedCounts{counts: counts}
}

func (f *fixedCounts) set(c entity.ConditionType, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[c] = n
}

func (f *fixedCounts) Count(ctx context.Context, userID uuid.UUID, c entity.ConditionType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[c], nil
}

func (f *fixedCounts) Snapshot(ctx context.Context, userID uuid.UUID) (xpRepo.Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(xpRepo.Counts, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out, nil
}
