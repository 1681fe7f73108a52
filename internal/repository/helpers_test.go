package repository_test

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedUser(t *testing.T, gdb *gorm.DB, username string, staff bool, token *string) db.User {
	t.Helper()
	u := db.User{
		Username:     username,
		Email:        username + "@test.com",
		PasswordHash: "x",
		Staff:        staff,
		DeviceToken:  token,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return u
}

func seedCase(t *testing.T, gdb *gorm.DB, firstName, gender, photoKey string, reporterID *uint64) db.Case {
	t.Helper()
	c := db.Case{
		FirstName:        firstName,
		LastName:         "Doe",
		Gender:           gender,
		PhotoKey:         photoKey,
		Status:           db.CaseMissing,
		SubmissionStatus: db.SubmissionActive,
		ReporterID:       reporterID,
	}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("failed to seed case %s: %v", firstName, err)
	}
	return c
}

func strPtr(s string) *string { return &s }
