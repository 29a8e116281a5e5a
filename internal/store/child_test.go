package store

import (
	"testing"
)

func TestChildCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChildStore(db)
	userID := createTestUser(t, db, "parent@example.com")

	child, err := cs.Create(userID, "Mia", "", nil)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if child.Name != "Mia" {
		t.Errorf("name = %q, want Mia", child.Name)
	}

	cs.Create(userID, "Noah", "", nil)

	children, err := cs.List()
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Errorf("got %d children, want 2", len(children))
	}
}

func TestChildCredential(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChildStore(db)
	userID := createTestUser(t, db, "parent@example.com")
	child, _ := cs.Create(userID, "Mia", "", nil)

	if err := cs.SetCredential(child.ID, "mia", "hash123"); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	got, err := cs.GetByUsername("MIA")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil || got.ID != child.ID {
		t.Fatalf("got %+v, want child %d", got, child.ID)
	}

	hash, err := cs.GetPasswordHash(child.ID)
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if hash != "hash123" {
		t.Errorf("hash = %q, want hash123", hash)
	}

	if err := cs.ClearCredential(child.ID); err != nil {
		t.Fatalf("clear credential: %v", err)
	}
	if got, _ := cs.GetByUsername("mia"); got != nil {
		t.Errorf("cleared credential still resolves: %+v", got)
	}
}

func TestChildDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChildStore(db)
	ls := NewLedgerStore(db)
	userID := createTestUser(t, db, "parent@example.com")
	child, _ := cs.Create(userID, "Mia", "", nil)

	grantStars(t, ls, child.ID, 5)

	if err := cs.Delete(child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if got, _ := cs.GetByID(child.ID); got != nil {
		t.Errorf("deleted child still present: %+v", got)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM star_transactions WHERE child_id = ?`, child.ID); n != 0 {
		t.Errorf("got %d orphaned transactions, want 0", n)
	}
}
