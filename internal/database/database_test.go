package database

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenEnablesPragmas(t *testing.T) {
	db := openTestDB(t)

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode pragma: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

// Child deletion relies on ON DELETE CASCADE, which only runs when the
// connection has foreign keys enabled. This exercises the real DSN.
func TestChildDeleteCascades(t *testing.T) {
	db := openTestDB(t)

	result, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES ('p@example.com', 'x')`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := result.LastInsertId()

	result, err = db.Exec(`INSERT INTO children (user_id, name) VALUES (?, 'Mia')`, userID)
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}
	childID, _ := result.LastInsertId()

	if _, err := db.Exec(
		`INSERT INTO star_transactions (child_id, type, amount, description) VALUES (?, 'earn', 5, 'eval')`,
		childID,
	); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM children WHERE id = ?`, childID); err != nil {
		t.Fatalf("delete child: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM star_transactions WHERE child_id = ?`, childID).Scan(&n); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if n != 0 {
		t.Errorf("%d transactions survived the child delete, want 0", n)
	}
}

func TestMigrationsCreateSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{
		"users", "sessions", "children", "activity_types", "penalty_types",
		"rewards", "daily_evaluations", "evaluation_details", "evaluation_penalties",
		"weekly_challenge_progress", "reward_redemptions", "star_transactions",
		"push_subscriptions",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
