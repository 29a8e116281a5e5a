package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/startracker/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var p model.PushSubscription
	err := scanner.Scan(&p.ID, &p.UserID, &p.Endpoint, &p.P256dhKey, &p.AuthKey, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const subscriptionCols = `id, user_id, endpoint, p256dh_key, auth_key, created_at`

// Create stores a subscription, replacing any previous row for the same
// endpoint (browsers re-subscribe with fresh keys).
func (s *PushStore) Create(userID int64, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key) VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		userID, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		// Upsert took the update path; fetch by endpoint instead.
		row = s.db.QueryRow(`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
		sub, err = scanSubscription(row)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}

// ListAll returns every stored subscription (all parents get notified).
func (s *PushStore) ListAll() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT ` + subscriptionCols + ` FROM push_subscriptions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		p, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *p)
	}
	return subs, rows.Err()
}
