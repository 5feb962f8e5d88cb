package repository

import (
	"context"
	"fmt"
	"sync"

	"anoa.com/aiiforsaxp/internal/entity"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Counts holds the current value of every condition type for one user.
// PROFILE_COMPLETE is a percentage, the rest are row counts.
type Counts map[entity.ConditionType]int

// CountTables maps each countable condition to the table owned by the
// feature service that produces those rows. All tables carry a user_id.
var CountTables = map[entity.ConditionType]string{
	entity.ConditionApplicationCount: "job_applications",
	entity.ConditionInterviewCount:   "interviews",
	entity.ConditionInteractionCount: "likes",
	entity.ConditionCVCount:          "resumes",
	entity.ConditionProjectCount:     "user_projects",
	entity.ConditionSkillCount:       "user_skills",
	entity.ConditionExperienceCount:  "user_work_experiences",
}

const educationTable = "user_educations"

// CountProvider reads the source counts the evaluator compares against.
// It never writes.
type CountProvider interface {
	Count(ctx context.Context, userID uuid.UUID, condition entity.ConditionType) (int, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (Counts, error)
}

type countProvider struct {
	db *gorm.DB
}

func NewCountProvider(db *gorm.DB) CountProvider {
	return &countProvider{db: db}
}

func (p *countProvider) Count(ctx context.Context, userID uuid.UUID, condition entity.ConditionType) (int, error) {
	if condition == entity.ConditionProfileComplete {
		return p.profileCompleteness(ctx, userID)
	}

	table, ok := CountTables[condition]
	if !ok {
		return 0, fmt.Errorf("no count source for condition %s", condition)
	}
	n, err := p.countRows(ctx, table, userID)
	return int(n), err
}

// Snapshot fetches every condition value concurrently.
func (p *countProvider) Snapshot(ctx context.Context, userID uuid.UUID) (Counts, error) {
	var mu sync.Mutex
	counts := make(Counts, len(CountTables)+1)

	g, gctx := errgroup.WithContext(ctx)
	for _, condition := range entity.CountConditions {
		condition := condition
		g.Go(func() error {
			n, err := p.Count(gctx, userID, condition)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[condition] = n
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		pct, err := p.profileCompleteness(gctx, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		counts[entity.ConditionProfileComplete] = pct
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count snapshot for user %s: %w", userID, err)
	}
	return counts, nil
}

// profileCompleteness scores five equally weighted sections: summary,
// skills, work experience, projects, education.
func (p *countProvider) profileCompleteness(ctx context.Context, userID uuid.UUID) (int, error) {
	var withSummary int64
	err := p.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ? AND summary IS NOT NULL AND summary <> ''", userID).
		Count(&withSummary).Error
	if err != nil {
		return 0, err
	}

	done := 0
	if withSummary > 0 {
		done++
	}
	for _, table := range []string{
		CountTables[entity.ConditionSkillCount],
		CountTables[entity.ConditionExperienceCount],
		CountTables[entity.ConditionProjectCount],
		educationTable,
	} {
		n, err := p.countRows(ctx, table, userID)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			done++
		}
	}

	return done * 100 / 5, nil
}

func (p *countProvider) countRows(ctx context.Context, table string, userID uuid.UUID) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Table(table).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
