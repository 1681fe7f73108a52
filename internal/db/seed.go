package db

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo users and cases.
//
// Behavior:
//  1. Clears all application tables.
//  2. Creates 2 staff users and 8 regular users (hashed passwords, half with
//     device tokens).
//  3. Creates a handful of approved cases and one pending location request.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(database *gorm.DB) error {
	tables := []string{
		"notifications", "match_candidates", "reports", "case_updates",
		"location_requests", "cases", "users",
	}
	for _, table := range tables {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch database.Dialector.Name() {
	case "mysql":
		for _, table := range tables {
			database.Exec(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = 1", table))
		}
	case "sqlite":
		for _, table := range tables {
			database.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for i := 1; i <= 10; i++ {
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Staff:        i <= 2,
			Gender:       "Male",
		}
		if i > 5 {
			user.Gender = "Female"
		}
		if i%2 == 0 {
			token := fmt.Sprintf("demo-device-token-%d", i)
			user.DeviceToken = &token
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 10 users (2 staff).")

	reporter := uint64(3)
	cases := []Case{
		{
			FirstName: "Adam", LastName: "Haddad", Age: 34, Gender: "Male",
			LastSeenDate:     time.Now().AddDate(0, -2, 0),
			LastSeenLocation: "Central Station",
			ReporterID:       &reporter,
			Status:           CaseMissing,
			SubmissionStatus: SubmissionActive,
		},
		{
			FirstName: "Lina", LastName: "Mansour", Age: 27, Gender: "Female",
			LastSeenDate:     time.Now().AddDate(0, 0, -20),
			LastSeenLocation: "Harbor district",
			ReporterID:       &reporter,
			Status:           CaseUnderInvestigation,
			SubmissionStatus: SubmissionActive,
		},
		{
			FirstName: "Omar", LastName: "Kassem", Age: 41, Gender: "Male",
			LastSeenDate:     time.Now().AddDate(-1, 0, 0),
			LastSeenLocation: "Old town",
			Status:           CaseMissing,
			SubmissionStatus: SubmissionInProgress,
		},
	}
	for i := range cases {
		if err := database.Create(&cases[i]).Error; err != nil {
			return fmt.Errorf("failed to seed case: %w", err)
		}
	}
	log.Printf("Seeded %d cases.", len(cases))

	request := LocationRequest{SenderID: 3, ReceiverID: 4, Status: RequestPending}
	if err := database.Create(&request).Error; err != nil {
		return fmt.Errorf("failed to seed location request: %w", err)
	}

	return nil
}
