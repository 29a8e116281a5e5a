package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/startracker/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	result, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES (?, 'x')`, email)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func createTestChild(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	userID := createTestUser(t, db, name+"@example.com")
	result, err := db.Exec(`INSERT INTO children (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
