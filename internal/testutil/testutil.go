// Package testutil provides database helpers for tests.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// targetSchema mirrors the subset of the service's schema that socioctl
// reads (and, for credential repair, writes).
const targetSchema = `
	CREATE TABLE Users (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Email TEXT NOT NULL,
		FirstName TEXT NOT NULL,
		LastName TEXT NOT NULL,
		PasswordHash TEXT,
		PasswordResetToken TEXT,
		PasswordResetTokenExpires TEXT,
		CreatedAt TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE MemberProfiles (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		UserId INTEGER NOT NULL REFERENCES Users(Id),
		MembershipStatus INTEGER NOT NULL,
		MemberSince TEXT,
		PaymentPreference TEXT
	);
`

// TempDB creates an in-memory SQLite database with the target schema.
func TempDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if _, err := database.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := database.Exec(targetSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// InsertUser inserts a user row and returns its id.
func InsertUser(t *testing.T, db *sql.DB, email, first, last, createdAt string) int64 {
	t.Helper()

	res, err := db.Exec(
		"INSERT INTO Users (Email, FirstName, LastName, CreatedAt) VALUES (?, ?, ?, ?)",
		email, first, last, createdAt,
	)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get user id: %v", err)
	}
	return id
}

// InsertProfile attaches a member profile to a user.
func InsertProfile(t *testing.T, db *sql.DB, userID int64, status int) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO MemberProfiles (UserId, MembershipStatus, PaymentPreference) VALUES (?, ?, 'Monthly')",
		userID, status,
	)
	if err != nil {
		t.Fatalf("failed to insert profile: %v", err)
	}
}
