package repository

import (
	"context"
	"testing"

	"anoa.com/aiiforsaxp/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createCountTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	tables := []string{educationTable}
	for _, table := range CountTables {
		tables = append(tables, table)
	}
	for _, table := range tables {
		require.NoError(t, db.Exec("CREATE TABLE "+table+" (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id TEXT NOT NULL)").Error)
	}
}

func insertRows(t *testing.T, db *gorm.DB, table string, userID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Exec("INSERT INTO "+table+" (user_id) VALUES (?)", userID).Error)
	}
}

func TestCountProvider_Count(t *testing.T) {
	db := newTestDB(t)
	createCountTables(t, db)
	u := createUser(t, db, "gita", 0)
	other := createUser(t, db, "hadi", 0)
	insertRows(t, db, "job_applications", u.ID, 3)
	insertRows(t, db, "job_applications", other.ID, 5)

	p := NewCountProvider(db)
	n, err := p.Count(context.Background(), u.ID, entity.ConditionApplicationCount)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = p.Count(context.Background(), u.ID, entity.ConditionType("UNKNOWN"))
	assert.Error(t, err)
}

func TestCountProvider_ProfileCompleteness(t *testing.T) {
	db := newTestDB(t)
	createCountTables(t, db)
	u := createUser(t, db, "indah", 0)
	p := NewCountProvider(db)
	ctx := context.Background()

	pct, err := p.Count(ctx, u.ID, entity.ConditionProfileComplete)
	require.NoError(t, err)
	assert.Zero(t, pct)

	require.NoError(t, db.Model(u).Update("summary", "Backend engineer").Error)
	insertRows(t, db, "user_skills", u.ID, 2)
	insertRows(t, db, "user_projects", u.ID, 1)

	pct, err = p.Count(ctx, u.ID, entity.ConditionProfileComplete)
	require.NoError(t, err)
	assert.Equal(t, 60, pct)

	insertRows(t, db, "user_work_experiences", u.ID, 1)
	insertRows(t, db, educationTable, u.ID, 1)
	pct, err = p.Count(ctx, u.ID, entity.ConditionProfileComplete)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
}

func TestCountProvider_Snapshot(t *testing.T) {
	db := newTestDB(t)
	createCountTables(t, db)
	u := createUser(t, db, "joko", 0)
	insertRows(t, db, "resumes", u.ID, 7)
	insertRows(t, db, "user_skills", u.ID, 4)

	counts, err := NewCountProvider(db).Snapshot(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, counts[entity.ConditionCVCount])
	assert.Equal(t, 4, counts[entity.ConditionSkillCount])
	assert.Equal(t, 0, counts[entity.ConditionInterviewCount])
	assert.Equal(t, 20, counts[entity.ConditionProfileComplete])
	assert.Len(t, counts, len(CountTables)+1)
}

func TestCountTables_CoverCountConditions(t *testing.T) {
	for _, c := range entity.CountConditions {
		assert.Contains(t, CountTables, c)
	}
	assert.Len(t, CountTables, len(entity.CountConditions))
}
