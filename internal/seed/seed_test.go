// File: internal/seed/seed_test.go
package seed

import (
	"context"
	"testing"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSeedTest opens an in-memory SQLite database with the users and
// lawyer_profiles tables. The DDL avoids Postgres-only defaults; the seed
// code assigns IDs itself.
func setupSeedTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, db.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE lawyer_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		slug TEXT,
		bar_registration_number TEXT NOT NULL,
		specialization TEXT,
		court_practice TEXT,
		languages TEXT,
		fee_structure TEXT,
		years_experience INTEGER NOT NULL DEFAULT 0,
		city TEXT,
		consultation_type TEXT NOT NULL DEFAULT 'both',
		photo_key TEXT,
		cv_key TEXT,
		bar_certificate_key TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	return db
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func TestUp_InsertsFixtures(t *testing.T) {
	db := setupSeedTest(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, zap.NewNop()))

	fixtureCount := int64(len(Fixtures()))
	assert.Equal(t, fixtureCount, countRows(t, db, &user.User{}))
	assert.Equal(t, fixtureCount, countRows(t, db, &lawyer.Profile{}))

	var u user.User
	require.NoError(t, db.Where("email = ?", "advocate.sharma@kanoonwise.test").First(&u).Error)
	assert.Equal(t, common.RoleLawyer, u.Role)

	var profile lawyer.Profile
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&profile).Error)
	assert.Equal(t, "Adv. Priya Sharma", profile.FullName)
	assert.Equal(t, "adv-priya-sharma", profile.Slug)
	assert.Equal(t, []string{"civil", "property"}, []string(profile.Specialization))
	assert.Equal(t, float64(1500), profile.FeeStructure.Consultation)
}

func TestUp_SkipsExistingEmails(t *testing.T) {
	db := setupSeedTest(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, zap.NewNop()))
	require.NoError(t, Up(ctx, db, zap.NewNop()))

	fixtureCount := int64(len(Fixtures()))
	assert.Equal(t, fixtureCount, countRows(t, db, &user.User{}))
	assert.Equal(t, fixtureCount, countRows(t, db, &lawyer.Profile{}))
}

func TestDown_RemovesExactlyFixtureEmails(t *testing.T) {
	db := setupSeedTest(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, zap.NewNop()))

	// A row that did not come from the fixtures must survive the tear-down.
	organic := user.User{
		BaseModel: common.BaseModel{ID: uuid.New()},
		Email:     "organic.lawyer@example.com",
		Role:      common.RoleLawyer,
	}
	require.NoError(t, db.Create(&organic).Error)
	organicProfile := lawyer.Profile{
		BaseModel:             common.BaseModel{ID: uuid.New()},
		UserID:                organic.ID,
		FullName:              "Adv. Organic",
		Slug:                  "adv-organic",
		BarRegistrationNumber: "TN/9/2019",
	}
	require.NoError(t, db.Create(&organicProfile).Error)

	require.NoError(t, Down(ctx, db, zap.NewNop()))

	assert.Equal(t, int64(1), countRows(t, db, &user.User{}))
	assert.Equal(t, int64(1), countRows(t, db, &lawyer.Profile{}))

	var remaining user.User
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, "organic.lawyer@example.com", remaining.Email)
}

func TestDown_OnEmptyDatabaseIsNoop(t *testing.T) {
	db := setupSeedTest(t)
	assert.NoError(t, Down(context.Background(), db, zap.NewNop()))
}
