package store

import (
	"testing"
)

func TestPushSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	userID := createTestUser(t, db, "parent@example.com")

	sub, err := ps.Create(userID, "https://push.example.com/abc", "p256dh-1", "auth-1")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/abc" {
		t.Errorf("endpoint = %q", sub.Endpoint)
	}

	// Re-subscribing the same endpoint replaces the keys, not adds a row.
	sub2, err := ps.Create(userID, "https://push.example.com/abc", "p256dh-2", "auth-2")
	if err != nil {
		t.Fatalf("re-create subscription: %v", err)
	}
	if sub2.P256dhKey != "p256dh-2" {
		t.Errorf("p256dh = %q, want p256dh-2", sub2.P256dhKey)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM push_subscriptions`); n != 1 {
		t.Errorf("got %d subscriptions, want 1", n)
	}
}

func TestPushSubscriptionDeleteByEndpoint(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	userID := createTestUser(t, db, "parent@example.com")

	ps.Create(userID, "https://push.example.com/abc", "k", "a")
	if err := ps.DeleteByEndpoint("https://push.example.com/abc"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, err := ps.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("got %d subscriptions, want 0", len(subs))
	}
}
