package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"vetting/interviewer/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	}
	migrateSchema = func(db *gorm.DB) error { return db.AutoMigrate(models.AllModels()...) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := migrateSchema(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Fixture is a candidate with an assigned interview and its ordered questions
type Fixture struct {
	Candidate   models.Candidate
	Interview   models.Interview
	Assignments []models.InterviewQuestion
}

// SeedInterview creates an interview, one bank question per importance and the candidate assigned to it.
func SeedInterview(t *testing.T, db *gorm.DB, passKey string, importances ...models.Importance) Fixture {
	t.Helper()

	interview := models.Interview{Title: "Integrity screening", Description: "Background and conduct"}
	if err := db.Create(&interview).Error; err != nil {
		t.Fatalf("failed seeding interview: %v", err)
	}

	candidate := models.Candidate{Name: "Sam Doe", Email: "sam@example.com", PassKey: passKey, InterviewID: &interview.ID}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("failed seeding candidate: %v", err)
	}

	fixture := Fixture{Candidate: candidate, Interview: interview}
	for i, importance := range importances {
		question := models.Question{
			Title:      fmt.Sprintf("Question %d", i+1),
			Text:       fmt.Sprintf("Please describe topic %d.", i+1),
			Importance: importance,
			Category:   "integrity",
		}
		if err := db.Create(&question).Error; err != nil {
			t.Fatalf("failed seeding question: %v", err)
		}
		assignment := models.NewAssignment(interview.ID, question, i)
		if err := db.Create(&assignment).Error; err != nil {
			t.Fatalf("failed seeding assignment: %v", err)
		}
		fixture.Assignments = append(fixture.Assignments, assignment)
	}
	return fixture
}
