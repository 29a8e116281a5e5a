package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

const sessionTTL = 30 * 24 * time.Hour

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var userID, childID sql.NullInt64

	err := scanner.Scan(&s.ID, &s.Token, &s.Role, &userID, &childID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		s.UserID = &userID.Int64
	}
	if childID.Valid {
		s.ChildID = &childID.Int64
	}
	return &s, nil
}

const sessionCols = `id, token, role, user_id, child_id, expires_at, created_at`

// CreateForUser opens a parent session.
func (s *SessionStore) CreateForUser(userID int64) (*model.Session, error) {
	return s.create("parent", sql.NullInt64{Int64: userID, Valid: true}, sql.NullInt64{})
}

// CreateForChild opens a child session tied to a child credential.
func (s *SessionStore) CreateForChild(childID int64) (*model.Session, error) {
	return s.create("child", sql.NullInt64{}, sql.NullInt64{Int64: childID, Valid: true})
}

func (s *SessionStore) create(role string, userID, childID sql.NullInt64) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(sessionTTL)
	result, err := s.db.Exec(
		`INSERT INTO sessions (token, role, user_id, child_id, expires_at) VALUES (?, ?, ?, ?, ?)`,
		token, role, userID, childID, expires,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GetByToken returns the session for a token, or nil if unknown or expired.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, nil
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes stale sessions; called periodically from main.
func (s *SessionStore) DeleteExpired() error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
